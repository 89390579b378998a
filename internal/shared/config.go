package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Audio    AudioConfig    `toml:"audio"`
	Database DatabaseConfig `toml:"database"`
}

// BackendConfig contains the Moodify API location and request limits.
type BackendConfig struct {
	URL               string        `toml:"url"`
	UploadTimeout     time.Duration `toml:"upload_timeout"`
	ProfileTimeout    time.Duration `toml:"profile_timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
}

// AudioConfig contains microphone and transcoding settings.
type AudioConfig struct {
	SampleRate       int    `toml:"sample_rate"`
	Channels         int    `toml:"channels"`
	BitDepth         int    `toml:"bit_depth"`
	Bitrate          int    `toml:"bitrate"`
	MIMEType         string `toml:"mime_type"`
	ChannelMode      string `toml:"channel_mode"` // interleave or downmix
	FFmpegPath       string `toml:"ffmpeg_path"`
	EchoCancellation bool   `toml:"echo_cancellation"`
	NoiseSuppression bool   `toml:"noise_suppression"`
	AutoGainControl  bool   `toml:"auto_gain_control"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports settings that would make capture or upload impossible.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("%w: backend.url is empty", ErrInvalidConfig)
	}
	if c.Backend.UploadTimeout <= 0 {
		return fmt.Errorf("%w: backend.upload_timeout must be positive", ErrInvalidConfig)
	}
	if c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0 {
		return fmt.Errorf("%w: audio.sample_rate and audio.channels must be positive", ErrInvalidConfig)
	}
	switch c.Audio.ChannelMode {
	case "interleave", "downmix":
	default:
		return fmt.Errorf("%w: audio.channel_mode must be interleave or downmix, got %q", ErrInvalidConfig, c.Audio.ChannelMode)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
