package buildsitemap

import "time"

type Config struct {
	Timeout time.Duration
	BaseURL string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
		BaseURL: "https://huusy.com",
	}
}
