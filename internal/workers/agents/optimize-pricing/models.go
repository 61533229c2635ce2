// internal/workers/agents/optimize-pricing/models.go
package optimizepricing

import "quotegenius/internal/models"

type Input struct {
	Quote       models.Quote        `json:"quote"`
	Comparables []models.Comparable `json:"comparables"`
}

// Output holds the optimized copy of the input quote. Degraded names the
// customer context sources that could not be read.
type Output struct {
	Quote           models.Quote   `json:"quote"`
	Recommendations models.Payload `json:"recommendations"`
	Degraded        []string       `json:"degraded,omitempty"`
}

// CustomerInfo is the customer context shown to the optimizer.
type CustomerInfo struct {
	models.Customer
	models.CustomerMetrics
}
