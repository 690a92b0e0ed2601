// Package narration wraps the remote text-to-speech provider. Missing
// configuration and unknown voice aliases are soft signals (no audio), not
// errors: the pipeline stays visually complete even without sound.
package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logger"
)

// voiceAliases maps caller-facing voice names to provider voice ids.
var voiceAliases = map[string]string{
	"adam":   "pNInz6obpgDQGcFmaJgB",
	"rachel": "21m00Tcm4TlvDq8ikWAM",
	"josh":   "TxGEqnHWrfWFTfGW9XjX",
	"bella":  "EXAVITQu4vr4xnSDxMaL",
	"antoni": "ErXwobaYiN019PkySvjV",
}

// Fixed synthesis parameters; tuning is constant, not computed per job.
const (
	modelID         = "eleven_monolingual_v1"
	stability       = 0.5
	similarityBoost = 0.75
)

type Service struct {
	cfg  config.Config
	log  *logger.Logger
	http *http.Client
}

func New(cfg config.Config) *Service {
	return &Service{
		cfg:  cfg,
		log:  logger.New("NarrationService"),
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text into an audio byte stream. ok is false, with no
// error, when no provider key is configured or the voice alias is empty or
// unrecognized. An error is returned only for a failed call to a correctly
// addressed provider; callers degrade that to absent as well.
func (s *Service) Synthesize(ctx context.Context, text, voiceAlias string) ([]byte, bool, error) {
	if s.cfg.ElevenLabsAPIKey == "" {
		s.log.LogDebug("no provider key configured, narration absent")
		return nil, false, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, false, nil
	}
	voiceID, ok := voiceAliases[strings.ToLower(strings.TrimSpace(voiceAlias))]
	if !ok {
		if voiceAlias != "" {
			s.log.LogWarnf("unknown voice alias %q, narration absent", voiceAlias)
		}
		return nil, false, nil
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: modelID,
		VoiceSettings: voiceSettings{
			Stability:       stability,
			SimilarityBoost: similarityBoost,
		},
	})
	if err != nil {
		return nil, false, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(s.cfg.TTSBaseURL, "/"), voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.cfg.ElevenLabsAPIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("speech provider request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.log.LogErrorf("speech provider returned %d: %s", resp.StatusCode, string(detail))
		return nil, false, fmt.Errorf("speech provider: status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("speech provider body: %w", err)
	}
	if len(audio) == 0 {
		return nil, false, fmt.Errorf("speech provider returned empty audio")
	}
	return audio, true, nil
}
