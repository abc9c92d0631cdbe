package config

import (
	"os"
	"testing"
	"time"
)

func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	saved := make(map[string]string, len(envs))
	for k, v := range envs {
		saved[k] = os.Getenv(k)
		os.Setenv(k, v)
	}
	return func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	// Set required env vars for all subtests
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL":       "postgres://localhost/test",
		"ASSEMBLYAI_API_KEY": "aai-test-key",
		"OPENAI_API_KEY":     "sk-test-key",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.MediaDir != "./media" {
			t.Errorf("MediaDir = %q, want ./media", cfg.MediaDir)
		}
		if cfg.YtdlpPath != "yt-dlp" {
			t.Errorf("YtdlpPath = %q, want yt-dlp", cfg.YtdlpPath)
		}
		if cfg.TranscribeProvider != "assemblyai" {
			t.Errorf("TranscribeProvider = %q, want assemblyai", cfg.TranscribeProvider)
		}
		if cfg.StageTimeout != 5*time.Minute {
			t.Errorf("StageTimeout = %s, want 5m", cfg.StageTimeout)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:     "nonexistent.env",
			HTTPAddr:    ":9090",
			LogLevel:    "debug",
			DatabaseURL: "postgres://override/db",
			MediaDir:    "/tmp/media",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.MediaDir != "/tmp/media" {
			t.Errorf("MediaDir = %q, want /tmp/media", cfg.MediaDir)
		}
	})

	t.Run("missing_database_url", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{"DATABASE_URL": ""})
		defer restore()
		os.Unsetenv("DATABASE_URL")
		if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
			t.Error("Load succeeded without DATABASE_URL, want error")
		}
	})

	t.Run("whisper_provider_requires_url", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{"TRANSCRIBE_PROVIDER": "whisper"})
		defer restore()
		if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
			t.Error("Load succeeded with whisper provider and no WHISPER_URL, want error")
		}
	})

	t.Run("whisper_provider_with_url", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{
			"TRANSCRIBE_PROVIDER": "whisper",
			"WHISPER_URL":         "http://localhost:9000/v1/audio/transcriptions",
			"WHISPER_API_KEY":     "wsp-test-key",
		})
		defer restore()
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.WhisperModel != "whisper-1" {
			t.Errorf("WhisperModel = %q, want whisper-1", cfg.WhisperModel)
		}
		if cfg.WhisperAPIKey != "wsp-test-key" {
			t.Errorf("WhisperAPIKey = %q, want wsp-test-key", cfg.WhisperAPIKey)
		}
	})

	t.Run("unknown_provider_rejected", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{"TRANSCRIBE_PROVIDER": "deepgram"})
		defer restore()
		if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
			t.Error("Load accepted unknown provider, want error")
		}
	})

	t.Run("missing_openai_key", func(t *testing.T) {
		restore := setEnvs(t, map[string]string{"OPENAI_API_KEY": ""})
		defer restore()
		os.Unsetenv("OPENAI_API_KEY")
		if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
			t.Error("Load succeeded without OPENAI_API_KEY, want error")
		}
	})
}
