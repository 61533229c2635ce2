// internal/workers/retrieval/find-comparables/handler_test.go
package findcomparables

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotegenius/internal/common/config"
	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/store/relational"
	"quotegenius/internal/store/similarity"
)

// ==========================
// Test doubles
// ==========================

type fakeSearch struct {
	hits []similarity.Hit
	err  error
	k    int
}

func (f *fakeSearch) Search(_ context.Context, _ string, k int, _ map[string]string) ([]similarity.Hit, error) {
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSearch) Upsert(context.Context, string, map[string]interface{}) (string, error) {
	return "", nil
}

type brokenQuotes struct {
	*relational.MemoryStore
}

func (brokenQuotes) GetCustomerQuotes(context.Context, string) ([]models.Quote, error) {
	return nil, apperrors.NewStoreReadError("postgres", errors.New("connection refused"))
}

func (brokenQuotes) FindAcceptedQuotesInRange(context.Context, float64, float64, string, int) ([]models.Quote, error) {
	return nil, apperrors.NewStoreReadError("postgres", errors.New("connection refused"))
}

func createTestConfig() *Config {
	return LoadConfig(config.PipelineConfig{})
}

func comparables(ids ...string) []models.Comparable {
	out := make([]models.Comparable, len(ids))
	for i, id := range ids {
		out[i] = models.Comparable{ID: id}
	}
	return out
}

func ids(cs []models.Comparable) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// ==========================
// MergeComparables
// ==========================

func TestMergeComparables(t *testing.T) {
	tests := []struct {
		name    string
		similar []models.Comparable
		history []models.Comparable
		limit   int
		want    []string
	}{
		{
			name:    "similarity first then unseen history",
			similar: comparables("p1", "p2"),
			history: comparables("q1", "p2", "q2"),
			limit:   10,
			want:    []string{"p1", "p2", "q1", "q2"},
		},
		{
			name:    "duplicate similarity ids collapse",
			similar: comparables("p1", "p1", "p2"),
			history: nil,
			limit:   10,
			want:    []string{"p1", "p2"},
		},
		{
			name:    "truncated to limit",
			similar: comparables("p1", "p2", "p3", "p4", "p5"),
			history: comparables("q1", "q2", "q3", "q4", "q5", "q6", "q7"),
			limit:   10,
			want:    []string{"p1", "p2", "p3", "p4", "p5", "q1", "q2", "q3", "q4", "q5"},
		},
		{
			name:  "both empty",
			limit: 10,
			want:  []string{},
		},
		{
			name:    "history only",
			history: comparables("q1", "q1", "q2"),
			limit:   10,
			want:    []string{"q1", "q2"},
		},
		{
			name:    "zero limit",
			similar: comparables("p1"),
			limit:   0,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeComparables(tt.similar, tt.history, tt.limit)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMergeComparables_BoundedAndUnique(t *testing.T) {
	for ns := 0; ns <= 12; ns += 3 {
		for nh := 0; nh <= 15; nh += 5 {
			similar := make([]models.Comparable, ns)
			for i := range similar {
				similar[i] = models.Comparable{ID: fmt.Sprintf("k%d", i%4)}
			}
			history := make([]models.Comparable, nh)
			for i := range history {
				history[i] = models.Comparable{ID: fmt.Sprintf("k%d", i)}
			}

			got := MergeComparables(similar, history, 10)
			assert.LessOrEqual(t, len(got), 10)

			seen := map[string]bool{}
			for _, c := range got {
				assert.False(t, seen[c.ID], "duplicate %s (similar=%d history=%d)", c.ID, ns, nh)
				seen[c.ID] = true
			}
		}
	}
}

func TestMergeComparables_IdempotentUnderHistoryReordering(t *testing.T) {
	similar := comparables("p1", "q2")
	history := comparables("q1", "q2", "q3")
	reordered := comparables("q3", "q1", "q2")

	a := ids(MergeComparables(similar, history, 10))
	b := ids(MergeComparables(similar, reordered, 10))

	assert.Equal(t, a[:2], b[:2], "similarity order is preserved")
	sort.Strings(a)
	sort.Strings(b)
	assert.Equal(t, a, b)

	once := MergeComparables(similar, history, 10)
	twice := MergeComparables(once, history, 10)
	assert.Equal(t, ids(once), ids(twice))
}

// ==========================
// ComparableFromHit
// ==========================

func TestComparableFromHit(t *testing.T) {
	hit := similarity.Hit{
		ID:      "sha-abc",
		Content: "Complete redesign and manufacturing of hydraulic control systems.",
		Score:   0.82,
		Metadata: map[string]interface{}{
			"project_id":         "proj-003",
			"project_name":       "Hydraulic System Overhaul",
			"customer_id":        "cust-101",
			"total_price":        195000.0,
			"profit_margin":      24.1,
			"customer_satisfied": false,
			"challenges":         "Material delays, design changes mid-project",
			"breakdown":          map[string]interface{}{"materials": 90000.0, "labor": "n/a"},
		},
	}

	c := ComparableFromHit(hit)
	assert.Equal(t, "proj-003", c.ID)
	assert.Equal(t, "Hydraulic System Overhaul", c.Name)
	assert.Equal(t, 195000.0, c.TotalPrice)
	require.NotNil(t, c.SimilarityScore)
	assert.Equal(t, 0.82, *c.SimilarityScore)
	require.NotNil(t, c.Satisfied)
	assert.False(t, *c.Satisfied)
	assert.Equal(t, map[string]float64{"materials": 90000}, c.Breakdown)
	assert.Equal(t, models.ComparableSourceSimilarity, c.Source)

	bare := ComparableFromHit(similarity.Hit{ID: "sha-xyz", Content: "x"})
	assert.Equal(t, "sha-xyz", bare.ID)
}

// ==========================
// Handler
// ==========================

func TestExecute_MergesSimilarityAndHistory(t *testing.T) {
	ctx := context.Background()
	quotes := relational.NewMemoryStore()
	require.NoError(t, quotes.PutQuote(ctx, models.Quote{ID: "q-1", CustomerID: "cust-101", ProjectName: "Old valves", TotalPrice: 90000, CreatedAt: time.Now()}))
	require.NoError(t, quotes.PutQuote(ctx, models.Quote{ID: "q-2", CustomerID: "cust-999", ProjectName: "Other", TotalPrice: 1}))

	search := &fakeSearch{hits: []similarity.Hit{
		{ID: "a", Content: "valves", Score: 0.9, Metadata: map[string]interface{}{"project_id": "proj-001", "total_price": 125000.0}},
	}}
	h := NewHandler(createTestConfig(), search, quotes, logger.NewTestLogger(t))

	out, err := h.Execute(ctx, &Input{CustomerID: "cust-101", ProjectDescription: "500 industrial valves"})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-001", "q-1"}, ids(out.Comparables))
	assert.Equal(t, models.ComparableSourceHistory, out.Comparables[1].Source)
	assert.Empty(t, out.Degraded)
	assert.Equal(t, 5, search.k)
}

func TestExecute_NoCustomerSkipsHistory(t *testing.T) {
	search := &fakeSearch{}
	h := NewHandler(createTestConfig(), search, brokenQuotes{relational.NewMemoryStore()}, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{ProjectDescription: "anything"})
	require.NoError(t, err)
	assert.Empty(t, out.Comparables)
	assert.Empty(t, out.Degraded)
}

func TestExecute_ReadFailuresDegrade(t *testing.T) {
	search := &fakeSearch{err: apperrors.NewSearchFailedError("quote-projects", errors.New("503"))}
	h := NewHandler(createTestConfig(), search, brokenQuotes{relational.NewMemoryStore()}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{CustomerID: "cust-101", ProjectDescription: "valves"})
	require.NoError(t, err)
	assert.Empty(t, out.Comparables)
	assert.Equal(t, []string{SourceSimilarProjects, SourceCustomerHistory}, out.Degraded)
}

func TestExecute_NilInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeSearch{}, relational.NewMemoryStore(), logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInputRequired)
}

func TestFindSuccessful(t *testing.T) {
	ctx := context.Background()
	quotes := relational.NewMemoryStore()
	for _, q := range []models.Quote{
		{ID: "self", TotalPrice: 100000, Status: models.QuoteStatusAccepted},
		{ID: "in-band", TotalPrice: 119000, Status: models.QuoteStatusAccepted},
		{ID: "out-of-band", TotalPrice: 125000, Status: models.QuoteStatusAccepted},
		{ID: "rejected", TotalPrice: 100000, Status: models.QuoteStatusRejected},
	} {
		require.NoError(t, quotes.PutQuote(ctx, q))
	}

	h := NewHandler(createTestConfig(), &fakeSearch{}, quotes, logger.NewNoOpLogger())
	out, err := h.FindSuccessful(ctx, &SuccessfulInput{QuoteID: "self", TotalPrice: 100000})
	require.NoError(t, err)
	assert.Equal(t, []string{"in-band"}, ids(out.Comparables))
}

func TestFindSuccessful_Degrades(t *testing.T) {
	h := NewHandler(createTestConfig(), &fakeSearch{}, brokenQuotes{relational.NewMemoryStore()}, logger.NewNoOpLogger())
	out, err := h.FindSuccessful(context.Background(), &SuccessfulInput{QuoteID: "q", TotalPrice: 10})
	require.NoError(t, err)
	assert.Empty(t, out.Comparables)
	assert.Equal(t, []string{SourceSuccessfulQuotes}, out.Degraded)
}

func TestPriceRange(t *testing.T) {
	lo, hi := PriceRange(100000, 0.2)
	assert.InDelta(t, 80000, lo, 1e-6)
	assert.InDelta(t, 120000, hi, 1e-6)

	lo, hi = PriceRange(0, 0.2)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name string
		in   config.PipelineConfig
		want Config
	}{
		{
			name: "defaults",
			want: Config{SimilarProjectsK: 5, MaxComparables: 10, PriceBand: 0.2, SuccessfulLimit: 5},
		},
		{
			name: "explicit values kept",
			in:   config.PipelineConfig{SimilarProjectsK: 3, MaxComparables: 4, PriceBand: 0.1, SuccessfulComparablesLimit: 2},
			want: Config{SimilarProjectsK: 3, MaxComparables: 4, PriceBand: 0.1, SuccessfulLimit: 2},
		},
		{
			name: "max comparables capped at ten",
			in:   config.PipelineConfig{MaxComparables: 15},
			want: Config{SimilarProjectsK: 5, MaxComparables: 10, PriceBand: 0.2, SuccessfulLimit: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, *LoadConfig(tt.in))
		})
	}
}
