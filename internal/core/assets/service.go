// Package assets locates the background clip, title banner and caption font
// for a job. Background resolution walks a prioritized chain of remote and
// local candidates and only errors when every option, including the remote
// generic fallback, is exhausted. Banner and font are optional: absence
// steers the composition, it never fails it.
package assets

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logger"
)

// fallbackCategories is the fixed priority order tried when the requested
// category resolves nothing.
var fallbackCategories = []config.Category{config.CategorySubway, config.CategoryMinecraft}

var bannerCandidates = []string{"banner.png", "reddit_banner.png", "title_banner.png"}

var fontCandidates = []string{
	filepath.Join("fonts", "Roboto-Bold.ttf"),
	filepath.Join("fonts", "Arial-Bold.ttf"),
}

type Service struct {
	cfg  config.Config
	log  *logger.Logger
	http *http.Client
}

func New(cfg config.Config) *Service {
	return &Service{
		cfg:  cfg,
		log:  logger.New("AssetService"),
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// ResolveBackground returns a playable local clip for the requested
// category. Unknown and missing categories fall through the chain; only
// total exhaustion is an error.
func (s *Service) ResolveBackground(ctx context.Context, category config.Category) (string, error) {
	if category == config.CategoryRandom || category == "" {
		category = config.Categories[rand.Intn(len(config.Categories))]
		s.log.LogDebugf("random background resolved to %s", category)
	}

	tried := []config.Category{category}
	for _, fb := range fallbackCategories {
		if fb != category {
			tried = append(tried, fb)
		}
	}

	for _, cat := range tried {
		if url, ok := s.cfg.BackgroundURLs[cat]; ok {
			if path, err := s.fetchCached(ctx, url, string(cat)+".mp4"); err == nil {
				return path, nil
			} else {
				s.log.LogWarnf("remote background %s unreachable: %v", cat, err)
			}
		}
		local := filepath.Join(s.cfg.AssetsDir, "backgrounds", string(cat)+".mp4")
		if fileExists(local) {
			return local, nil
		}
	}

	if s.cfg.BackgroundFallbackURL != "" {
		path, err := s.fetchCached(ctx, s.cfg.BackgroundFallbackURL, "fallback.mp4")
		if err == nil {
			return path, nil
		}
		s.log.LogWarnf("generic fallback background unreachable: %v", err)
	}
	return "", fmt.Errorf("no background clip reachable for category %q", category)
}

// ResolveBanner returns the first conventional banner asset that exists.
func (s *Service) ResolveBanner() (string, bool) {
	for _, name := range bannerCandidates {
		p := filepath.Join(s.cfg.AssetsDir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// ResolveFont returns the first conventional caption font that exists. When
// none does, drawtext falls back to the transcoder's built-in default.
func (s *Service) ResolveFont() (string, bool) {
	for _, name := range fontCandidates {
		p := filepath.Join(s.cfg.AssetsDir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// fetchCached downloads url into the scratch cache once; later jobs reuse
// the cached copy. Scratch lifecycle is owned by the host environment.
func (s *Service) fetchCached(ctx context.Context, url, name string) (string, error) {
	dir := filepath.Join(s.cfg.DataDir, "cache")
	path := filepath.Join(dir, name)
	if fileExists(path) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	s.log.LogInfof("cached background %s (%s)", name, url)
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
