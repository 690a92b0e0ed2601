// Package compose builds the transcoder filter graph and argument list for a
// story video: a normalized vertical background, an optional title banner
// gated to the opening narration, word-by-word caption overlays, and a
// concatenated narration audio track. Plans are pure functions of their
// inputs so two plans built from the same inputs are textually identical.
package compose

import (
	"fmt"
	"strings"

	"storyreel/internal/core/captions"
)

// Fixed frame and encode tuning. Constant across jobs so encoder behavior is
// reproducible and failures triage the same way every time.
const (
	frameWidth  = 1080
	frameHeight = 1920
	frameRate   = 30

	eqFilter = "eq=brightness=0.03:contrast=1.05:saturation=1.15"

	bannerWidth   = 900
	bannerOffsetY = 260

	captionFontSize = 88

	audioFormat = "aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo"
)

// Inputs is the fully resolved material for one composition. An empty string
// means the optional asset or clip is absent.
type Inputs struct {
	Background   string
	Banner       string
	OpeningAudio string
	StoryAudio   string
	FontFile     string

	Words           []captions.Word
	OpeningDuration float64
	TotalDuration   float64
	OutputPath      string
}

// Input is one -i entry of the argument list. Loop marks still images that
// must be looped into a video stream so they can be overlaid with a time
// gate.
type Input struct {
	Path string
	Loop bool
}

// Plan is a complete, deterministic transcoder invocation.
type Plan struct {
	Inputs        []Input
	Graph         string
	VideoLabel    string
	AudioLabel    string // empty when the output is video-only
	TotalDuration float64
	OutputPath    string
}

// Primary builds the full composition: banner, captions and audio.
func Primary(in Inputs) Plan {
	return build(in, true)
}

// Fallback builds the reduced composition used after a primary execution
// failure: background plus audio only. Visual polish is expendable; a
// playable narrated video is not.
func Fallback(in Inputs) Plan {
	return build(in, false)
}

func build(in Inputs, full bool) Plan {
	p := Plan{
		TotalDuration: in.TotalDuration,
		OutputPath:    in.OutputPath,
	}
	var g Graph

	// Input 0 is always the background clip, looped so short clips cover the
	// whole narration; -t bounds the output.
	p.Inputs = append(p.Inputs, Input{Path: in.Background})
	bannerIdx, openingIdx, storyIdx := -1, -1, -1
	if full && in.Banner != "" {
		bannerIdx = len(p.Inputs)
		p.Inputs = append(p.Inputs, Input{Path: in.Banner, Loop: true})
	}
	if in.OpeningAudio != "" {
		openingIdx = len(p.Inputs)
		p.Inputs = append(p.Inputs, Input{Path: in.OpeningAudio})
	}
	if in.StoryAudio != "" {
		storyIdx = len(p.Inputs)
		p.Inputs = append(p.Inputs, Input{Path: in.StoryAudio})
	}

	// Stage 1: scale to fill the vertical frame, center-crop the overflow,
	// then the fixed color grade.
	g.Add([]string{"0:v"}, fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,%s,fps=%d,setsar=1",
		frameWidth, frameHeight, frameWidth, frameHeight, eqFilter, frameRate,
	), "v0")
	pad := "v0"
	padSeq := 1

	// Stage 2: banner overlay, visible only while the opening clip plays.
	if bannerIdx >= 0 {
		g.Add([]string{fmt.Sprintf("%d:v", bannerIdx)}, fmt.Sprintf("scale=%d:-1", bannerWidth), "banner")
		out := fmt.Sprintf("v%d", padSeq)
		padSeq++
		g.Add([]string{pad, "banner"}, fmt.Sprintf(
			"overlay=(main_w-overlay_w)/2:%d:enable='between(t,0,%s)'",
			bannerOffsetY, f(in.OpeningDuration),
		), out)
		pad = out
	}

	// Stage 3: one drawtext per caption word, each on a fresh pad, shifted
	// into the output timeline by the opening duration.
	if full {
		for _, w := range in.Words {
			out := fmt.Sprintf("v%d", padSeq)
			padSeq++
			g.Add([]string{pad}, drawtext(w, in.OpeningDuration, in.FontFile), out)
			pad = out
		}
	}
	p.VideoLabel = pad

	// Stage 4: audio. Both clips are normalized independently and
	// concatenated opening-first; a lone clip is normalized alone; with no
	// clips the output carries no audio stream at all.
	switch {
	case openingIdx >= 0 && storyIdx >= 0:
		g.Add([]string{fmt.Sprintf("%d:a", openingIdx)}, audioFormat, "a0")
		g.Add([]string{fmt.Sprintf("%d:a", storyIdx)}, audioFormat, "a1")
		g.Add([]string{"a0", "a1"}, "concat=n=2:v=0:a=1", "aout")
		p.AudioLabel = "aout"
	case openingIdx >= 0:
		g.Add([]string{fmt.Sprintf("%d:a", openingIdx)}, audioFormat, "aout")
		p.AudioLabel = "aout"
	case storyIdx >= 0:
		g.Add([]string{fmt.Sprintf("%d:a", storyIdx)}, audioFormat, "aout")
		p.AudioLabel = "aout"
	}

	p.Graph = g.String()
	return p
}

func drawtext(w captions.Word, offset float64, fontFile string) string {
	var b strings.Builder
	b.WriteString("drawtext=")
	if fontFile != "" {
		b.WriteString("fontfile=")
		b.WriteString(fontFile)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "text='%s'", escapeText(strings.ToUpper(w.Text)))
	fmt.Fprintf(&b, ":fontsize=%d:fontcolor=white:borderw=6:bordercolor=black", captionFontSize)
	b.WriteString(":x=(w-text_w)/2:y=(h-text_h)/2")
	fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", f(offset+w.Start), f(offset+w.End))
	return b.String()
}

// escapeText neutralizes characters that are structurally significant to the
// filter graph syntax inside a quoted drawtext value.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`,`, `\,`,
	`%`, `\%`,
	`[`, `\[`,
	`]`, `\]`,
	`;`, `\;`,
)

func escapeText(s string) string { return textEscaper.Replace(s) }

// f formats seconds with fixed precision so graph text stays stable.
func f(seconds float64) string { return fmt.Sprintf("%.3f", seconds) }

// Args renders the full transcoder argument list. Encoding parameters are
// fixed; -t bounds looping inputs and -shortest stops at the shorter of
// video and audio when audio is mapped.
func (p Plan) Args() []string {
	args := []string{"-hide_banner", "-y"}
	for i, in := range p.Inputs {
		if in.Loop {
			args = append(args, "-loop", "1")
		}
		if i == 0 {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", in.Path)
	}
	args = append(args, "-filter_complex", p.Graph)
	args = append(args, "-map", "["+p.VideoLabel+"]")
	if p.AudioLabel != "" {
		args = append(args, "-map", "["+p.AudioLabel+"]")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", frameRate),
	)
	if p.AudioLabel != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-ar", "44100", "-shortest")
	}
	args = append(args,
		"-t", f(p.TotalDuration),
		"-movflags", "+faststart",
		p.OutputPath,
	)
	return args
}
