package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./moodify.db" {
			t.Errorf("expected database path ./moodify.db, got %s", config.Database.Path)
		}

		if config.Backend.URL != "http://127.0.0.1:8000" {
			t.Errorf("expected backend URL http://127.0.0.1:8000, got %s", config.Backend.URL)
		}

		if config.Backend.UploadTimeout != 60*time.Second {
			t.Errorf("expected upload timeout 60s, got %v", config.Backend.UploadTimeout)
		}

		if config.Audio.SampleRate != 16000 || config.Audio.Channels != 1 || config.Audio.BitDepth != 16 {
			t.Errorf("unexpected audio defaults: %+v", config.Audio)
		}

		if !config.Audio.EchoCancellation || !config.Audio.NoiseSuppression || !config.Audio.AutoGainControl {
			t.Error("expected input processing to be enabled by default")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[backend]
url = "https://moodify.example.com"
upload_timeout = "15s"

[audio]
channel_mode = "downmix"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Backend.URL != "https://moodify.example.com" {
			t.Errorf("expected custom backend URL, got %s", config.Backend.URL)
		}

		if config.Backend.UploadTimeout != 15*time.Second {
			t.Errorf("expected upload timeout 15s, got %v", config.Backend.UploadTimeout)
		}

		if config.Audio.ChannelMode != "downmix" {
			t.Errorf("expected channel mode downmix, got %s", config.Audio.ChannelMode)
		}

		if config.Audio.SampleRate != 16000 {
			t.Errorf("expected default sample rate to survive partial config, got %d", config.Audio.SampleRate)
		}
	})

	t.Run("LoadConfig Invalid Channel Mode", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[audio]\nchannel_mode = \"surround\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
