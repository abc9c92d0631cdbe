package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`

	// Media acquisition
	MediaDir  string `env:"MEDIA_DIR" envDefault:"./media"`
	YtdlpPath string `env:"YTDLP_PATH" envDefault:"yt-dlp"`

	// Transcription: "assemblyai" or "whisper"
	TranscribeProvider string `env:"TRANSCRIBE_PROVIDER" envDefault:"assemblyai"`
	AssemblyAIAPIKey   string `env:"ASSEMBLYAI_API_KEY"`
	WhisperURL         string `env:"WHISPER_URL"`
	WhisperModel       string `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	// Optional: self-hosted whisper endpoints typically run unauthenticated.
	WhisperAPIKey string `env:"WHISPER_API_KEY"`

	// Synthesis
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	SynthesisModel string `env:"SYNTHESIS_MODEL" envDefault:"gpt-4o-mini"`

	// Upper bound applied to each external pipeline stage.
	StageTimeout time.Duration `env:"STAGE_TIMEOUT" envDefault:"5m"`

	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	// Generate requests block for the whole pipeline run and the events
	// endpoint streams indefinitely, so the write timeout must comfortably
	// exceed the stage timeouts.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	MediaDir    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MediaDir != "" {
		cfg.MediaDir = overrides.MediaDir
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.TranscribeProvider {
	case "assemblyai":
		if c.AssemblyAIAPIKey == "" {
			return fmt.Errorf("TRANSCRIBE_PROVIDER=assemblyai requires ASSEMBLYAI_API_KEY")
		}
	case "whisper":
		if c.WhisperURL == "" {
			return fmt.Errorf("TRANSCRIBE_PROVIDER=whisper requires WHISPER_URL")
		}
	default:
		return fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q (want assemblyai or whisper)", c.TranscribeProvider)
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("STAGE_TIMEOUT must be positive, got %s", c.StageTimeout)
	}
	return nil
}
