package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/cncview/internal/engine"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AccessKeyHash  string        `envconfig:"ACCESS_KEY_HASH"` // bcrypt; empty disables auth
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	ArcSegments    int   `envconfig:"ARC_SEGMENTS" default:"60"`
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`

	PlaybackTickRate    int `envconfig:"PLAYBACK_TICK_RATE" default:"60"`
	PlaybackEventBuffer int `envconfig:"PLAYBACK_EVENT_BUFFER" default:"256"`

	LargeFileWarning     int     `envconfig:"LARGE_FILE_WARNING" default:"50000"`
	VeryLargeFileWarning int     `envconfig:"VERY_LARGE_FILE_WARNING" default:"100000"`
	ToolheadAutoHideSize float64 `envconfig:"TOOLHEAD_AUTO_HIDE_SIZE" default:"500"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the parser or the playback loop cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ArcSegments < 1:
		return errors.Join(ErrInvalidConfig, errors.New("ARC_SEGMENTS must be at least 1"))
	case c.PlaybackTickRate <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("PLAYBACK_TICK_RATE must be positive"))
	case c.PlaybackEventBuffer < 1:
		return errors.Join(ErrInvalidConfig, errors.New("PLAYBACK_EVENT_BUFFER must be at least 1"))
	case c.MaxUploadBytes <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("MAX_UPLOAD_BYTES must be positive"))
	case c.TokenTTL <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("TOKEN_TTL must be positive"))
	}
	return nil
}

// Origins splits AllowedOrigins into a trimmed list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TickInterval is the wall-clock period between playback updates.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.PlaybackTickRate)
}

// EngineSettings maps the config onto engine settings.
func (c *Config) EngineSettings() engine.Settings {
	return engine.Settings{
		ArcSegments:          c.ArcSegments,
		EventBuffer:          c.PlaybackEventBuffer,
		LargeFileWarning:     c.LargeFileWarning,
		VeryLargeFileWarning: c.VeryLargeFileWarning,
		ToolheadAutoHideSize: c.ToolheadAutoHideSize,
	}
}
