package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Category is a background clip category a caller may request.
type Category string

const (
	CategorySubway    Category = "subway"
	CategoryCooking   Category = "cooking"
	CategoryWorkers   Category = "workers"
	CategoryASMR      Category = "asmr"
	CategoryMinecraft Category = "minecraft"
	CategoryRandom    Category = "random"
)

// Categories lists every concrete (non-random) background category.
var Categories = []Category{CategorySubway, CategoryCooking, CategoryWorkers, CategoryASMR, CategoryMinecraft}

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string
	DataDir       string
	AssetsDir     string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	ElevenLabsAPIKey string
	TTSBaseURL       string

	FFmpegBin  string
	FFprobeBin string

	// Remote background clip URLs, keyed by category; any may be empty.
	BackgroundURLs        map[Category]string
	BackgroundFallbackURL string

	WorkerConcurrency    int
	RenderTimeoutSeconds int
	TaskMaxRetries       int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Load() Config {
	urls := make(map[Category]string, len(Categories))
	for _, c := range Categories {
		if u := os.Getenv("BACKGROUND_URL_" + strings.ToUpper(string(c))); u != "" {
			urls[c] = u
		}
	}

	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		DataDir:       getenv("DATA_DIR", "./data"),
		AssetsDir:     getenv("ASSETS_DIR", "./assets"),

		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_STORAGE_BUCKET", "videos"),

		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		TTSBaseURL:       getenv("TTS_BASE_URL", "https://api.elevenlabs.io"),

		FFmpegBin:  getenv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin: getenv("FFPROBE_BIN", "ffprobe"),

		BackgroundURLs:        urls,
		BackgroundFallbackURL: os.Getenv("BACKGROUND_FALLBACK_URL"),

		WorkerConcurrency:    getenvInt("WORKER_CONCURRENCY", 4),
		RenderTimeoutSeconds: getenvInt("RENDER_TIMEOUT_SECONDS", 300),
		TaskMaxRetries:       getenvInt("TASK_MAX_RETRIES", 3),
	}
	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	return cfg
}
