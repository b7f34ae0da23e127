package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:"your-secret-key"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	ThinkingSecs int           `env:"GAME_THINKING_SECONDS" envDefault:"10"`
	DrawingSecs  int           `env:"GAME_DRAWING_SECONDS" envDefault:"60"`
	GuessingSecs int           `env:"GAME_GUESSING_SECONDS" envDefault:"60"`
	ResultSecs   int           `env:"GAME_RESULT_SECONDS" envDefault:"5"`
	ResultDelay  time.Duration `env:"GAME_RESULT_DELAY" envDefault:"3s"`
}

// Load reads the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must not be blank")
	}
	return cfg, nil
}

// OriginPatterns returns the websocket origin allow-list derived from FRONTEND_URL.
// The scheme is stripped because origin patterns match on host only.
func (c Config) OriginPatterns() []string {
	patterns := []string{"localhost:3000"}
	host := c.FrontendURL
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if host != "" && host != patterns[0] {
		patterns = append(patterns, host)
	}
	return patterns
}
