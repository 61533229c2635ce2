// internal/workers/agents/generate-quote/models.go
package generatequote

import "quotegenius/internal/models"

type Input struct {
	Request     models.QuoteRequest `json:"request"`
	Analysis    models.Payload      `json:"analysis"`
	Comparables []models.Comparable `json:"comparables"`
	Rules       models.RuleSet      `json:"rules"`
}

type Output struct {
	Quote models.Quote `json:"quote"`
}
