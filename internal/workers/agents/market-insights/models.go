// internal/workers/agents/market-insights/models.go
package marketinsights

import "quotegenius/internal/models"

type Input struct {
	Analytics models.Analytics `json:"analytics"`
}

type Output struct {
	Report models.InsightsReport `json:"report"`
}
