// internal/workers/retrieval/lookup-rules/config.go
package lookuprules

import "quotegenius/internal/common/config"

type Config struct {
	CustomerRulesK int
	GeneralRulesK  int
}

func LoadConfig(p config.PipelineConfig) *Config {
	cfg := &Config{
		CustomerRulesK: p.CustomerRulesK,
		GeneralRulesK:  p.GeneralRulesK,
	}
	if cfg.CustomerRulesK <= 0 {
		cfg.CustomerRulesK = 10
	}
	if cfg.GeneralRulesK <= 0 {
		cfg.GeneralRulesK = 5
	}
	return cfg
}
