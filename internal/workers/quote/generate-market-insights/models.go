// internal/workers/quote/generate-market-insights/models.go
package generatemarketinsights

import "quotegenius/internal/models"

// Input is empty: insights cover every recorded quote.
type Input struct{}

type Output struct {
	Report models.InsightsReport `json:"insightsReport"`
}
