// Package storage persists finished artifacts. When Supabase credentials are
// configured, artifacts are uploaded to the bucket and served through a
// signed URL; otherwise they stay on local disk under the data dir and are
// served from the /files static route.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/logger"

	"github.com/antoineross/supabase-go"
	storage_go "github.com/supabase-community/storage-go"
)

type Service struct {
	cfg config.Config
	log *logger.Logger

	supabaseClient *supabase.Client
}

func New(cfg config.Config) (*Service, error) {
	s := &Service{cfg: cfg, log: logger.New("Storage")}

	if cfg.AppEnv == "production" {
		if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" || cfg.SupabaseBucket == "" {
			return nil, fmt.Errorf("production environment requires Supabase configuration: SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY and SUPABASE_STORAGE_BUCKET must be set")
		}
	}

	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			if cfg.AppEnv == "production" {
				return nil, fmt.Errorf("failed to initialize Supabase client in production: %w", err)
			}
			s.log.LogWarnf("failed to initialize Supabase client: %v", err)
		} else {
			s.supabaseClient = client
		}
	}
	return s, nil
}

// SaveVideo stores the finished artifact at localPath and returns the URL the
// status record should surface to pollers.
func (s *Service) SaveVideo(localPath, name string) (string, error) {
	if s.supabaseClient != nil && s.cfg.SupabaseBucket != "" {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return "", err
		}
		bucketPath := filepath.ToSlash(filepath.Join("videos", name))
		mimeType := "video/mp4"
		reader := bytes.NewReader(data)
		if _, err := s.supabaseClient.Storage.UploadFile(s.cfg.SupabaseBucket, bucketPath, reader, storage_go.FileOptions{ContentType: &mimeType}); err != nil {
			s.log.LogWarnf("Supabase upload failed: %v", err)
			if s.cfg.AppEnv == "production" {
				return "", fmt.Errorf("failed to upload video to Supabase storage: %w", err)
			}
			return s.localURL(name), nil
		}
		signed, err := s.createSignedURL(s.cfg.SupabaseBucket, bucketPath, 24*3600)
		if err != nil {
			s.log.LogWarnf("Supabase signed URL creation failed: %v", err)
			if s.cfg.AppEnv == "production" {
				return "", fmt.Errorf("failed to create signed URL for video: %w", err)
			}
			return s.localURL(name), nil
		}
		return signed, nil
	}

	if s.cfg.AppEnv == "production" {
		return "", fmt.Errorf("supabase storage is required in production environment")
	}
	return s.localURL(name), nil
}

func (s *Service) localURL(name string) string { return "/files/videos/" + name }

// createSignedURL performs a direct REST call to sign objects with fresh
// headers.
func (s *Service) createSignedURL(bucket, objectPath string, expiresIn int) (string, error) {
	if s.cfg.SupabaseURL == "" {
		return "", fmt.Errorf("supabase URL not configured")
	}
	serviceKey := s.cfg.SupabaseServiceKey
	if serviceKey == "" {
		return "", fmt.Errorf("supabase service key not configured")
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", strings.TrimRight(s.cfg.SupabaseURL, "/"), bucket, objectPath)
	body := map[string]int{"expiresIn": expiresIn}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", fmt.Errorf("failed to encode sign body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, signURL, buf)
	if err != nil {
		return "", fmt.Errorf("failed to build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+serviceKey)
	req.Header.Set("apikey", serviceKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request signed URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to create signed URL: status %d", resp.StatusCode)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("failed to decode signed URL response: %w", err)
	}

	base := strings.TrimRight(s.cfg.SupabaseURL, "/")
	path := signed.SignedURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/storage/v1/") {
		path = "/storage/v1" + path
	}
	return base + path, nil
}
