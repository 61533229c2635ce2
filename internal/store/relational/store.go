// internal/store/relational/store.go

// Package relational is the durable system of record for quotes, customers and
// feedback.
//
// Writers rely on the database for isolation: every write is a single
// statement, so a quote's indexed columns and its JSON blob never diverge, and
// racing writers to the same quote are serialised by Postgres row locks under
// read-committed isolation. Callers add no locking of their own.
package relational

import (
	"context"

	"quotegenius/internal/models"
)

// Store is the contract the pipeline needs from the relational store.
type Store interface {
	// GetQuote returns a QUOTE_NOT_FOUND error when id is unknown.
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	// PutQuote inserts or replaces a quote under its id.
	PutQuote(ctx context.Context, q models.Quote) error
	// GetCustomerQuotes returns the customer's quotes, newest first.
	GetCustomerQuotes(ctx context.Context, customerID string) ([]models.Quote, error)
	// GetCustomer returns a CUSTOMER_NOT_FOUND error when id is unknown.
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	PutCustomer(ctx context.Context, c models.Customer) error
	// AppendFeedback records feedback; a QUOTE_NOT_FOUND error is returned for unknown quotes.
	AppendFeedback(ctx context.Context, quoteID, text string, accepted bool) (*models.Feedback, error)
	ListFeedback(ctx context.Context, quoteID string) ([]models.Feedback, error)
	// SetQuoteStatus overwrites the quote's status; a QUOTE_NOT_FOUND error is returned for unknown quotes.
	SetQuoteStatus(ctx context.Context, quoteID string, status models.QuoteStatus) error
	// FindAcceptedQuotesInRange returns accepted quotes priced within [minPrice, maxPrice],
	// newest first, skipping excludeID.
	FindAcceptedQuotesInRange(ctx context.Context, minPrice, maxPrice float64, excludeID string, limit int) ([]models.Quote, error)
	AggregateAnalytics(ctx context.Context) (*models.Analytics, error)
}
