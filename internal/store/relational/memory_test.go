package relational

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/models"
)

var _ Store = (*MemoryStore)(nil)
var _ Store = (*PostgresStore)(nil)

func TestMemoryStore_FeedbackLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.PutQuote(ctx, sampleQuote()))

	_, err := store.AppendFeedback(ctx, "q-1", "Approved by procurement", true)
	require.NoError(t, err)
	require.NoError(t, store.SetQuoteStatus(ctx, "q-1", models.QuoteStatusAccepted))

	_, err = store.AppendFeedback(ctx, "q-1", "Budget withdrawn", false)
	require.NoError(t, err)
	require.NoError(t, store.SetQuoteStatus(ctx, "q-1", models.QuoteStatusRejected))

	q, err := store.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusRejected, q.Status)

	entries, err := store.ListFeedback(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Accepted)
	assert.False(t, entries[1].Accepted)
	assert.Less(t, entries[0].ID, entries[1].ID)
}

func TestMemoryStore_PutQuoteKeepsStatusOfExistingQuote(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.PutQuote(ctx, sampleQuote()))
	require.NoError(t, store.SetQuoteStatus(ctx, "q-1", models.QuoteStatusAccepted))

	repriced := sampleQuote()
	repriced.TotalPrice = 95000
	repriced.Status = models.QuoteStatusPending
	require.NoError(t, store.PutQuote(ctx, repriced))

	q, err := store.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, 95000.0, q.TotalPrice)
	assert.Equal(t, models.QuoteStatusAccepted, q.Status)
}

func TestMemoryStore_UnknownQuote(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetQuote(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrQuoteNotFound))

	_, err = store.AppendFeedback(ctx, "missing", "x", true)
	assert.True(t, errors.Is(err, apperrors.ErrQuoteNotFound))

	err = store.SetQuoteStatus(ctx, "missing", models.QuoteStatusAccepted)
	assert.True(t, errors.Is(err, apperrors.ErrQuoteNotFound))

	entries, _ := store.ListFeedback(ctx, "missing")
	assert.Empty(t, entries)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.PutQuote(ctx, sampleQuote()))

	q, err := store.GetQuote(ctx, "q-1")
	require.NoError(t, err)
	q.Breakdown["materials"] = 1

	again, _ := store.GetQuote(ctx, "q-1")
	assert.Equal(t, float64(60000), again.Breakdown["materials"])
}

func TestMemoryStore_FindAcceptedQuotesInRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, tc := range []struct {
		id     string
		price  float64
		status models.QuoteStatus
	}{
		{"a", 95000, models.QuoteStatusAccepted},
		{"b", 110000, models.QuoteStatusAccepted},
		{"c", 100000, models.QuoteStatusRejected},
		{"d", 200000, models.QuoteStatusAccepted},
		{"self", 100000, models.QuoteStatusAccepted},
	} {
		q := sampleQuote()
		q.ID = tc.id
		q.TotalPrice = tc.price
		q.Status = tc.status
		q.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.PutQuote(ctx, q))
	}

	got, err := store.FindAcceptedQuotesInRange(ctx, 80000, 120000, "self", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)

	limited, _ := store.FindAcceptedQuotesInRange(ctx, 0, 1e9, "", 1)
	assert.Len(t, limited, 1)
}

func TestMemoryStore_AggregateAnalytics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	march := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, status := range []models.QuoteStatus{models.QuoteStatusAccepted, models.QuoteStatusRejected, models.QuoteStatusAccepted, models.QuoteStatusPending} {
		q := sampleQuote()
		q.ID = string(rune('a' + i))
		q.Status = status
		q.TotalPrice = float64(100 * (i + 1))
		q.CreatedAt = march
		if i == 3 {
			q.CreatedAt = march.AddDate(0, -1, 0)
		}
		require.NoError(t, store.PutQuote(ctx, q))
	}

	a, err := store.AggregateAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, a.TotalCount)
	assert.Equal(t, 2, a.StatusCounts[models.QuoteStatusAccepted])
	assert.Equal(t, float64(200), a.AveragePriceByStatus[models.QuoteStatusAccepted])
	assert.InDelta(t, 0.5, a.OverallWinRate, 1e-9)
	require.Len(t, a.MonthlyTrends, 2)
	assert.Equal(t, "2025-03", a.MonthlyTrends[0].Month)
	assert.InDelta(t, 2.0/3.0, a.MonthlyTrends[0].WinRate, 1e-9)
}
