// internal/workers/quote/reoptimize-quote/config.go
package reoptimizequote

import (
	"time"

	"quotegenius/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{Timeout: config.GetDuration(wcfg.Timeout)}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	return cfg
}
