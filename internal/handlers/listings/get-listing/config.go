// internal/handlers/listings/get-listing/config.go
package getlisting

import "time"

type Config struct {
	Timeout      time.Duration
	RelatedLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		RelatedLimit: 3,
	}
}
