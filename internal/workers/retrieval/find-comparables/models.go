// internal/workers/retrieval/find-comparables/models.go
package findcomparables

import "quotegenius/internal/models"

type Input struct {
	CustomerID         string `json:"customerId"`
	ProjectDescription string `json:"projectDescription"`
}

// Output lists the merged comparables. Degraded names the context sources
// that failed and were treated as empty.
type Output struct {
	Comparables []models.Comparable `json:"comparables"`
	Degraded    []string            `json:"degraded,omitempty"`
}

type SuccessfulInput struct {
	QuoteID    string  `json:"quoteId"`
	TotalPrice float64 `json:"totalPrice"`
}
