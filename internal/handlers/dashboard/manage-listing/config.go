package managelisting

import "time"

type Config struct {
	Timeout time.Duration
	// PathSuffixLength is how many id characters follow a generated slug.
	PathSuffixLength int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		PathSuffixLength: 8,
	}
}
