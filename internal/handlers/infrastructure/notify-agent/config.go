package notifyagent

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
	// SiteURL prefixes listing links in messages.
	SiteURL string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
		SiteURL:      "https://huusy.com",
	}
}
