// internal/workers/retrieval/lookup-rules/handler_test.go
package lookuprules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotegenius/internal/common/config"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/store/similarity"
)

type searchCall struct {
	query  string
	k      int
	filter map[string]string
}

type scriptedSearch struct {
	calls   []searchCall
	results map[string][]similarity.Hit
	fail    map[string]bool
}

func (s *scriptedSearch) Search(_ context.Context, text string, k int, filter map[string]string) ([]similarity.Hit, error) {
	s.calls = append(s.calls, searchCall{query: text, k: k, filter: filter})
	if s.fail[text] {
		return nil, errors.New("index unavailable")
	}
	return s.results[text], nil
}

func (s *scriptedSearch) Upsert(context.Context, string, map[string]interface{}) (string, error) {
	return "", nil
}

func createTestHandler(t *testing.T, search similarity.Store) *Handler {
	return NewHandler(LoadConfig(config.PipelineConfig{}), search, logger.NewTestLogger(t))
}

func TestExecute_GroupsCustomerAndGeneralRules(t *testing.T) {
	search := &scriptedSearch{results: map[string][]similarity.Hit{
		"Business rules for customer cust-101": {
			{Content: "Customer 101 has negotiated a 5% volume discount on orders over $100,000.", Score: 0.9,
				Metadata: map[string]interface{}{"rule_id": "rule-003", "rule_type": "customer-specific", "customer_id": "cust-101"}},
		},
		generalRulesQuery: {
			{Content: "Standard markup for raw materials is 15-20% depending on market volatility.", Score: 0.8,
				Metadata: map[string]interface{}{"rule_id": "rule-001", "rule_type": "general"}},
			{Content: "Labor rates must include 25% overhead for benefits and facility costs.", Score: 0.7,
				Metadata: map[string]interface{}{"rule_id": "rule-002", "rule_type": "general"}},
		},
	}}
	h := createTestHandler(t, search)

	out, err := h.Execute(context.Background(), &Input{CustomerID: "cust-101"})
	require.NoError(t, err)
	assert.False(t, out.UsedDefault)
	assert.Empty(t, out.Degraded)

	require.Len(t, out.Rules["customer-specific"], 1)
	assert.Equal(t, "rule-003", out.Rules["customer-specific"][0].ID)
	require.Len(t, out.Rules["general"], 2)
	assert.Equal(t, "rule-001", out.Rules["general"][0].ID)
	assert.Equal(t, 0.7, out.Rules["general"][1].Relevance)

	require.Len(t, search.calls, 2)
	assert.Equal(t, searchCall{query: "Business rules for customer cust-101", k: 10, filter: map[string]string{"customer_id": "cust-101"}}, search.calls[0])
	assert.Equal(t, searchCall{query: generalRulesQuery, k: 5, filter: map[string]string{"rule_type": "general"}}, search.calls[1])
}

func TestExecute_NoCustomerOnlyGeneralQuery(t *testing.T) {
	search := &scriptedSearch{}
	h := createTestHandler(t, search)

	_, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	require.Len(t, search.calls, 1)
	assert.Equal(t, generalRulesQuery, search.calls[0].query)
}

func TestExecute_EmptyFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name         string
		fail         map[string]bool
		wantDegraded []string
	}{
		{name: "nothing indexed"},
		{
			name:         "both searches fail",
			fail:         map[string]bool{"Business rules for customer cust-7": true, generalRulesQuery: true},
			wantDegraded: []string{SourceCustomerRules, SourceGeneralRules},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, &scriptedSearch{fail: tt.fail})

			out, err := h.Execute(context.Background(), &Input{CustomerID: "cust-7"})
			require.NoError(t, err)
			assert.True(t, out.UsedDefault)
			assert.Equal(t, tt.wantDegraded, out.Degraded)
			assert.Equal(t, DefaultRules(), out.Rules)

			general := out.Rules[GeneralCategory]
			require.Len(t, general, 3)
			assert.Equal(t, "default-1", general[0].ID)
			assert.Equal(t, "Standard markup for materials is 15%", general[0].Description)
			assert.Equal(t, "Apply 25% overhead rate to labor costs", general[1].Description)
			assert.Equal(t, "Add 10% contingency for complex projects", general[2].Description)
		})
	}
}

func TestGroupRules_MissingMetadata(t *testing.T) {
	set := GroupRules([]similarity.Hit{{Content: "Quote in USD", Score: 0.4}})
	require.Len(t, set[GeneralCategory], 1)
	assert.Equal(t, "unknown", set[GeneralCategory][0].ID)
	assert.Equal(t, "Quote in USD", set[GeneralCategory][0].Description)
}

func TestExecute_WithMemoryIndex(t *testing.T) {
	ctx := context.Background()
	store := similarity.NewMemoryStore()
	_, _ = store.Upsert(ctx, "Labor rates must include 25% overhead for benefits and facility costs.",
		map[string]interface{}{"rule_id": "rule-002", "rule_type": "general"})
	_, _ = store.Upsert(ctx, "Customer 101 has negotiated a 5% volume discount on orders over $100,000.",
		map[string]interface{}{"rule_id": "rule-003", "rule_type": "customer-specific", "customer_id": "cust-101"})

	h := createTestHandler(t, store)
	out, err := h.Execute(ctx, &Input{CustomerID: "cust-102"})
	require.NoError(t, err)
	assert.Len(t, out.Rules["general"], 1)
	assert.Empty(t, out.Rules["customer-specific"])
}
