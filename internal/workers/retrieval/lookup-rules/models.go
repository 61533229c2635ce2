// internal/workers/retrieval/lookup-rules/models.go
package lookuprules

import "quotegenius/internal/models"

type Input struct {
	CustomerID string `json:"customerId"`
}

type Output struct {
	Rules       models.RuleSet `json:"rules"`
	UsedDefault bool           `json:"usedDefault"`
	Degraded    []string       `json:"degraded,omitempty"`
}
