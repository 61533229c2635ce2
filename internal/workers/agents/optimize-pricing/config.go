// internal/workers/agents/optimize-pricing/config.go
package optimizepricing

import "quotegenius/internal/common/config"

// Config carries the market outlook quoted to the optimizer. It is static
// until a market data feed exists.
type Config struct {
	MaterialsTrend   string
	CompetitionLevel string
	LaborMarket      string
	EconomicOutlook  string
}

func LoadConfig(m config.MarketConfig) *Config {
	cfg := &Config{
		MaterialsTrend:   m.MaterialsTrend,
		CompetitionLevel: m.CompetitionLevel,
		LaborMarket:      m.LaborMarket,
		EconomicOutlook:  m.EconomicOutlook,
	}
	if cfg.MaterialsTrend == "" {
		cfg.MaterialsTrend = "increasing moderately"
	}
	if cfg.CompetitionLevel == "" {
		cfg.CompetitionLevel = "highly competitive"
	}
	if cfg.LaborMarket == "" {
		cfg.LaborMarket = "tight"
	}
	if cfg.EconomicOutlook == "" {
		cfg.EconomicOutlook = "stable"
	}
	return cfg
}
