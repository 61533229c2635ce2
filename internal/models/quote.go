// internal/models/quote.go
package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRejected:
		return true
	}
	return false
}

// StatusForDecision maps a feedback acceptance flag onto a lifecycle status.
func StatusForDecision(accepted bool) QuoteStatus {
	if accepted {
		return QuoteStatusAccepted
	}
	return QuoteStatusRejected
}

type Material struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type QuoteRequest struct {
	CustomerID          string     `json:"customerId"`
	ProjectName         string     `json:"projectName"`
	ProjectDescription  string     `json:"projectDescription"`
	Materials           []Material `json:"materials"`
	LaborHours          *float64   `json:"laborHours,omitempty"`
	Deadline            string     `json:"deadline,omitempty"`
	SpecialRequirements string     `json:"specialRequirements,omitempty"`
}

// MaterialsText renders the bill of materials for a prompt.
func (r QuoteRequest) MaterialsText() string {
	if len(r.Materials) == 0 {
		return "None specified"
	}
	parts := make([]string, 0, len(r.Materials))
	for _, m := range r.Materials {
		qty := strconv.FormatFloat(m.Quantity, 'f', -1, 64)
		if m.Unit != "" {
			parts = append(parts, fmt.Sprintf("%s (%s %s)", m.Name, qty, m.Unit))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", m.Name, qty))
		}
	}
	return strings.Join(parts, "; ")
}

func (r QuoteRequest) LaborHoursText() string {
	if r.LaborHours == nil {
		return "Not specified"
	}
	return strconv.FormatFloat(*r.LaborHours, 'f', -1, 64)
}

func (r QuoteRequest) DeadlineText() string {
	return orDefault(r.Deadline, "Not specified")
}

func (r QuoteRequest) SpecialRequirementsText() string {
	return orDefault(r.SpecialRequirements, "None")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// Optimization records how a pricing recommendation changed a quote.
type Optimization struct {
	Recommendations       Payload `json:"recommendations"`
	OriginalPrice         float64 `json:"originalPrice"`
	PriceChangePercentage float64 `json:"priceChangePercentage"`
}

// Quote is a priced proposal. Breakdown maps cost category to amount and
// TotalPrice is either an explicit oracle total or the breakdown sum.
type Quote struct {
	ID              string             `json:"quoteId"`
	CustomerID      string             `json:"customerId"`
	ProjectName     string             `json:"projectName"`
	CreatedAt       time.Time          `json:"createdAt"`
	Breakdown       map[string]float64 `json:"breakdown"`
	TotalPrice      float64            `json:"totalPrice"`
	ConfidenceScore float64            `json:"confidenceScore"`
	Status          QuoteStatus        `json:"status"`
	Generation      Payload            `json:"generation"`
	Optimization    *Optimization      `json:"optimization,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
}

// Clone returns a deep copy of the quote's mutable parts.
func (q Quote) Clone() Quote {
	out := q
	out.Breakdown = make(map[string]float64, len(q.Breakdown))
	for k, v := range q.Breakdown {
		out.Breakdown[k] = v
	}
	if q.Optimization != nil {
		opt := *q.Optimization
		out.Optimization = &opt
	}
	if q.Recommendations != nil {
		out.Recommendations = append([]string(nil), q.Recommendations...)
	}
	return out
}

// BreakdownSum adds breakdown values in key order so the result does not depend
// on map iteration.
func BreakdownSum(breakdown map[string]float64) float64 {
	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		total += breakdown[k]
	}
	return total
}

// ClampConfidence bounds a confidence score to [0, 100].
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// QuoteResponse is the externally visible result of the quote workflows.
type QuoteResponse struct {
	QuoteID         string             `json:"quoteId"`
	CustomerID      string             `json:"customerId"`
	ProjectName     string             `json:"projectName"`
	Status          QuoteStatus        `json:"status"`
	Breakdown       map[string]float64 `json:"breakdown"`
	TotalPrice      float64            `json:"totalPrice"`
	ConfidenceScore float64            `json:"confidenceScore"`
	Optimization    *Optimization      `json:"optimization,omitempty"`
	Recommendations []string           `json:"recommendations"`
	Details         Payload            `json:"details"`
	GeneratedAt     time.Time          `json:"generatedAt"`
	Persisted       bool               `json:"persisted"`
}

func NewQuoteResponse(q Quote, persisted bool) *QuoteResponse {
	recs := q.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return &QuoteResponse{
		QuoteID:         q.ID,
		CustomerID:      q.CustomerID,
		ProjectName:     q.ProjectName,
		Status:          q.Status,
		Breakdown:       q.Breakdown,
		TotalPrice:      q.TotalPrice,
		ConfidenceScore: q.ConfidenceScore,
		Optimization:    q.Optimization,
		Recommendations: recs,
		Details:         q.Generation,
		GeneratedAt:     q.CreatedAt,
		Persisted:       persisted,
	}
}
