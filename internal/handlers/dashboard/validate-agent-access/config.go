package validateagentaccess

import "time"

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}
