// internal/workers/retrieval/find-comparables/config.go
package findcomparables

import "quotegenius/internal/common/config"

type Config struct {
	SimilarProjectsK int
	MaxComparables   int
	PriceBand        float64
	SuccessfulLimit  int
}

func LoadConfig(p config.PipelineConfig) *Config {
	cfg := &Config{
		SimilarProjectsK: p.SimilarProjectsK,
		MaxComparables:   p.MaxComparables,
		PriceBand:        p.PriceBand,
		SuccessfulLimit:  p.SuccessfulComparablesLimit,
	}
	if cfg.SimilarProjectsK <= 0 {
		cfg.SimilarProjectsK = 5
	}
	if cfg.MaxComparables <= 0 || cfg.MaxComparables > config.MaxComparablesLimit {
		cfg.MaxComparables = config.MaxComparablesLimit
	}
	if cfg.PriceBand <= 0 || cfg.PriceBand >= 1 {
		cfg.PriceBand = 0.2
	}
	if cfg.SuccessfulLimit <= 0 {
		cfg.SuccessfulLimit = 5
	}
	return cfg
}
