// internal/workers/agents/generate-recommendations/models.go
package generaterecommendations

import "quotegenius/internal/models"

type Input struct {
	Quote models.Quote `json:"quote"`
}

type Output struct {
	Recommendations []string `json:"recommendations"`
}
