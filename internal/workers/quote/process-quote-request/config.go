// internal/workers/quote/process-quote-request/config.go
package processquoterequest

import (
	"time"

	"quotegenius/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig leaves room for five sequential oracle calls by default.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{Timeout: config.GetDuration(wcfg.Timeout)}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return cfg
}
