package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// PublicURL overrides the autodetected LAN address in join links and
	// QR codes, e.g. when running behind a reverse proxy.
	PublicURL string `env:"PUBLIC_URL"`
}

func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
