package main

import (
	"encoding/hex"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration, read from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"9000"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	RPID          string   `env:"RP_ID" envDefault:"localhost"`
	RPDisplayName string   `env:"RP_DISPLAY_NAME" envDefault:"BioPass"`
	RPOrigins     []string `env:"RP_ORIGINS" envDefault:"http://localhost:3000"`

	// PayloadKey is the hex-encoded 32-byte AES key sealing QR payloads.
	// Left empty, a random key is generated; QR codes then only survive a
	// single process.
	PayloadKey string `env:"QR_PAYLOAD_KEY"`

	QRSize int `env:"QR_SIZE" envDefault:"256"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// DecodePayloadKey returns the configured AES key, or nil when unset.
func (c *Config) DecodePayloadKey() ([]byte, error) {
	if c.PayloadKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.PayloadKey)
	if err != nil {
		return nil, fmt.Errorf("QR_PAYLOAD_KEY is not valid hex: %w", err)
	}
	return key, nil
}
