package synclistingindex

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
	// Workers bounds concurrent index requests during Reindex.
	Workers int
	// ReindexTimeout bounds a full rebuild.
	ReindexTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		Index:          "listings",
		Workers:        8,
		ReindexTimeout: 10 * time.Minute,
	}
}
