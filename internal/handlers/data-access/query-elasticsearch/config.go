// internal/handlers/data-access/query-elasticsearch/config.go
package queryelasticsearch

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
		Index:   "listings",
	}
}
