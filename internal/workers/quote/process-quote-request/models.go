// internal/workers/quote/process-quote-request/models.go
package processquoterequest

import "quotegenius/internal/models"

type Input struct {
	Request models.QuoteRequest `json:"request"`
}

type Output struct {
	QuoteID    string               `json:"quoteId"`
	TotalPrice float64              `json:"totalPrice"`
	Persisted  bool                 `json:"persisted"`
	Quote      models.QuoteResponse `json:"quote"`
}
