// internal/store/relational/memory.go
package relational

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/models"
)

// MemoryStore is an in-process Store with the same contract as PostgresStore.
// It backs the pipeline tests and local dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	quotes    map[string]models.Quote
	customers map[string]models.Customer
	feedback  []models.Feedback
	nextID    int64
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes:    make(map[string]models.Quote),
		customers: make(map[string]models.Customer),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) GetQuote(_ context.Context, id string) (*models.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, apperrors.NewQuoteNotFoundError(id)
	}
	out := q.Clone()
	return &out, nil
}

func (m *MemoryStore) PutQuote(_ context.Context, q models.Quote) error {
	if q.Status == "" {
		q.Status = models.QuoteStatusPending
	}
	m.mu.Lock()
	if existing, ok := m.quotes[q.ID]; ok {
		q.Status = existing.Status
	}
	m.quotes[q.ID] = q.Clone()
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetCustomerQuotes(_ context.Context, customerID string) ([]models.Quote, error) {
	m.mu.RLock()
	out := []models.Quote{}
	for _, q := range m.quotes {
		if q.CustomerID == customerID {
			out = append(out, q.Clone())
		}
	}
	m.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, apperrors.NewCustomerNotFoundError(id)
	}
	return &c, nil
}

func (m *MemoryStore) PutCustomer(_ context.Context, c models.Customer) error {
	m.mu.Lock()
	m.customers[c.ID] = c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) AppendFeedback(_ context.Context, quoteID, text string, accepted bool) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotes[quoteID]; !ok {
		return nil, apperrors.NewQuoteNotFoundError(quoteID)
	}
	m.nextID++
	fb := models.Feedback{
		ID:        m.nextID,
		QuoteID:   quoteID,
		Text:      text,
		Accepted:  accepted,
		CreatedAt: m.now(),
	}
	m.feedback = append(m.feedback, fb)
	return &fb, nil
}

func (m *MemoryStore) ListFeedback(_ context.Context, quoteID string) ([]models.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Feedback
	for _, fb := range m.feedback {
		if fb.QuoteID == quoteID {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetQuoteStatus(_ context.Context, quoteID string, status models.QuoteStatus) error {
	if !status.Valid() {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown quote status %q", status))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[quoteID]
	if !ok {
		return apperrors.NewQuoteNotFoundError(quoteID)
	}
	q.Status = status
	m.quotes[quoteID] = q
	return nil
}

func (m *MemoryStore) FindAcceptedQuotesInRange(_ context.Context, minPrice, maxPrice float64, excludeID string, limit int) ([]models.Quote, error) {
	m.mu.RLock()
	out := []models.Quote{}
	for _, q := range m.quotes {
		if q.Status != models.QuoteStatusAccepted || q.ID == excludeID {
			continue
		}
		if q.TotalPrice < minPrice || q.TotalPrice > maxPrice {
			continue
		}
		out = append(out, q.Clone())
	}
	m.mu.RUnlock()

	sortNewestFirst(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) AggregateAnalytics(_ context.Context) (*models.Analytics, error) {
	out := &models.Analytics{
		StatusCounts:         map[models.QuoteStatus]int{},
		AveragePriceByStatus: map[models.QuoteStatus]float64{},
		MonthlyTrends:        []models.MonthlyTrend{},
	}

	sums := map[models.QuoteStatus]float64{}
	months := map[string]*models.MonthlyTrend{}
	monthSums := map[string]float64{}

	m.mu.RLock()
	for _, q := range m.quotes {
		out.TotalCount++
		out.StatusCounts[q.Status]++
		sums[q.Status] += q.TotalPrice

		key := q.CreatedAt.UTC().Format("2006-01")
		t, ok := months[key]
		if !ok {
			t = &models.MonthlyTrend{Month: key}
			months[key] = t
		}
		t.Count++
		monthSums[key] += q.TotalPrice
		if q.Status == models.QuoteStatusAccepted {
			t.AcceptedCount++
		}
	}
	m.mu.RUnlock()

	for status, n := range out.StatusCounts {
		out.AveragePriceByStatus[status] = sums[status] / float64(n)
	}
	for key, t := range months {
		t.AveragePrice = monthSums[key] / float64(t.Count)
		t.WinRate = float64(t.AcceptedCount) / float64(t.Count)
		out.MonthlyTrends = append(out.MonthlyTrends, *t)
	}
	sort.Slice(out.MonthlyTrends, func(i, j int) bool {
		return out.MonthlyTrends[i].Month > out.MonthlyTrends[j].Month
	})
	if len(out.MonthlyTrends) > 12 {
		out.MonthlyTrends = out.MonthlyTrends[:12]
	}
	if out.TotalCount > 0 {
		out.OverallWinRate = float64(out.StatusCounts[models.QuoteStatusAccepted]) / float64(out.TotalCount)
	}
	return out, nil
}

func sortNewestFirst(quotes []models.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if !quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].CreatedAt.After(quotes[j].CreatedAt)
		}
		return quotes[i].ID < quotes[j].ID
	})
}
