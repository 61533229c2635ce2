// internal/workers/agents/analyze-requirements/models.go
package analyzerequirements

import "quotegenius/internal/models"

type Input struct {
	Request models.QuoteRequest `json:"request"`
}

type Output struct {
	Analysis models.Payload `json:"analysis"`
}
