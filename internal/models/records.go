package models

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatMoney renders an amount as dollars with thousands separators.
func FormatMoney(v float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", v)
}

// Comparable is a historical project or past quote used as pricing context.
type Comparable struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	CustomerID      string             `json:"customerId,omitempty"`
	TotalPrice      float64            `json:"totalPrice"`
	Status          string             `json:"status,omitempty"`
	Breakdown       map[string]float64 `json:"breakdown,omitempty"`
	SimilarityScore *float64           `json:"similarityScore,omitempty"`
	ProfitMargin    *float64           `json:"profitMargin,omitempty"`
	Satisfied       *bool              `json:"customerSatisfied,omitempty"`
	Challenges      string             `json:"challenges,omitempty"`
	Source          string             `json:"source"`
}

const (
	ComparableSourceSimilarity = "similarity"
	ComparableSourceHistory    = "history"
)

// ComparableFromQuote adapts a stored quote into pricing context.
func ComparableFromQuote(q Quote) Comparable {
	breakdown := make(map[string]float64, len(q.Breakdown))
	for k, v := range q.Breakdown {
		breakdown[k] = v
	}
	return Comparable{
		ID:         q.ID,
		Name:       q.ProjectName,
		CustomerID: q.CustomerID,
		TotalPrice: q.TotalPrice,
		Status:     string(q.Status),
		Breakdown:  breakdown,
		Source:     ComparableSourceHistory,
	}
}

type BusinessRule struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Relevance   float64 `json:"relevance"`
}

// RuleSet groups rules by category in retrieval order.
type RuleSet map[string][]BusinessRule

func (r RuleSet) Len() int {
	n := 0
	for _, rules := range r {
		n += len(rules)
	}
	return n
}

type Customer struct {
	ID                 string  `json:"customerId"`
	Name               string  `json:"customerName"`
	Industry           string  `json:"industry"`
	RelationshipLength int     `json:"relationshipLength"`
	CreditScore        float64 `json:"creditScore"`
}

type CustomerMetrics struct {
	WinRate            float64 `json:"winRate"`
	AverageProjectSize float64 `json:"averageProjectSize"`
	TotalProjects      int     `json:"totalProjects"`
}

type Feedback struct {
	ID        int64     `json:"feedbackId,omitempty"`
	QuoteID   string    `json:"quoteId"`
	Text      string    `json:"feedback"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeedbackAck struct {
	Status      string      `json:"status"`
	Message     string      `json:"message"`
	QuoteID     string      `json:"quoteId"`
	QuoteStatus QuoteStatus `json:"quoteStatus"`
}

// FeedbackEvent is published to the optimizer hook after a status transition.
type FeedbackEvent struct {
	QuoteID    string      `json:"quoteId"`
	Accepted   bool        `json:"accepted"`
	Status     QuoteStatus `json:"status"`
	Feedback   string      `json:"feedback"`
	RecordedAt time.Time   `json:"recordedAt"`
}

type MonthlyTrend struct {
	Month         string  `json:"month"`
	Count         int     `json:"count"`
	AveragePrice  float64 `json:"averagePrice"`
	AcceptedCount int     `json:"acceptedCount"`
	WinRate       float64 `json:"winRate"`
}

type Analytics struct {
	TotalCount           int                     `json:"totalCount"`
	StatusCounts         map[QuoteStatus]int     `json:"statusCounts"`
	AveragePriceByStatus map[QuoteStatus]float64 `json:"averagePriceByStatus"`
	MonthlyTrends        []MonthlyTrend          `json:"monthlyTrends"`
	OverallWinRate       float64                 `json:"overallWinRate"`
}

type InsightsReport struct {
	Analytics   Analytics `json:"rawAnalytics"`
	Insights    string    `json:"insights"`
	GeneratedAt time.Time `json:"generatedAt"`
}
