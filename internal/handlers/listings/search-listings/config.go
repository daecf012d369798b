// internal/handlers/listings/search-listings/config.go
package searchlistings

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}
