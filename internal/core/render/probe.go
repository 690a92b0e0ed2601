package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Probe measures the playable duration of an audio clip in seconds via the
// companion probing binary. A clip that exists but reports a non-positive or
// non-finite duration is an error, not a degradable condition.
func (e *Executor) Probe(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	out, err := e.probe(ctx, e.cfg.FFprobeBin, args)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	raw := strings.TrimSpace(out)
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("probe %s: unparsable duration %q", path, raw)
	}
	if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("probe %s: invalid duration %v", path, d)
	}
	return d, nil
}

func probeCommand(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
