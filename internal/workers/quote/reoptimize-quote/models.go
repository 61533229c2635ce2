// internal/workers/quote/reoptimize-quote/models.go
package reoptimizequote

import "quotegenius/internal/models"

type Input struct {
	QuoteID string `json:"quoteId"`
}

type Output struct {
	QuoteID               string               `json:"quoteId"`
	TotalPrice            float64              `json:"totalPrice"`
	PriceChangePercentage float64              `json:"priceChangePercentage"`
	Persisted             bool                 `json:"persisted"`
	Quote                 models.QuoteResponse `json:"quote"`
}
