package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// TempDir receives per-request staged video and extracted audio files.
	TempDir string

	// Upload cap for the multipart form, in bytes.
	MaxUploadBytes int64

	Media     MediaConfig
	Whisper   WhisperConfig
	RateLimit RateLimitConfig
}

type MediaConfig struct {
	FFmpegPath  string
	FFprobePath string
}

type WhisperConfig struct {
	// BinPath is the whisper.cpp CLI; ModelPath the ggml model file.
	BinPath   string
	ModelPath string
	Language  string

	// ServerURL switches transcription to a remote whisper server.
	ServerURL string

	// ForceCPU disables GPU probing and runs inference on CPU.
	ForceCPU bool

	UseMock bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

func Load() Config {
	return Config{
		Port:            envOr("PORT", "5000"),
		ReadTimeout:     durationOr("READ_TIMEOUT_SEC", 30),
		WriteTimeout:    durationOr("WRITE_TIMEOUT_SEC", 300),
		IdleTimeout:     durationOr("IDLE_TIMEOUT_SEC", 120),
		ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT_SEC", 15),
		TempDir:         envOr("TEMP_DIR", os.TempDir()),
		MaxUploadBytes:  int64Or("MAX_UPLOAD_MB", 512) << 20,
		Media: MediaConfig{
			FFmpegPath:  envOr("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: envOr("FFPROBE_PATH", "ffprobe"),
		},
		Whisper: WhisperConfig{
			BinPath:   envOr("WHISPER_BIN", "whisper-cli"),
			ModelPath: envOr("WHISPER_MODEL", "models/ggml-medium.bin"),
			Language:  envOr("WHISPER_LANGUAGE", "en"),
			ServerURL: os.Getenv("WHISPER_SERVER_URL"),
			ForceCPU:  boolOr("WHISPER_FORCE_CPU", false),
			UseMock:   boolOr("USE_MOCK_TRANSCRIBE", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:           boolOr("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: intOr("RATE_LIMIT_RPM", 60),
			Burst:             intOr("RATE_LIMIT_BURST", 10),
		},
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intOr(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func int64Or(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func boolOr(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func durationOr(k string, defSec int) time.Duration {
	return time.Duration(intOr(k, defSec)) * time.Second
}
