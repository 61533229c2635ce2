package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  postgres:
    host: localhost
    database: quotes
    user: quotes
  elasticsearch:
    addresses: ["http://localhost:9200"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "quotegenius", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, "quote-projects", cfg.Database.Elasticsearch.ProjectsIndex)
	assert.Equal(t, "quote-business-rules", cfg.Database.Elasticsearch.RulesIndex)

	assert.Equal(t, 5, cfg.Pipeline.SimilarProjectsK)
	assert.Equal(t, 10, cfg.Pipeline.MaxComparables)
	assert.Equal(t, 10, cfg.Pipeline.CustomerRulesK)
	assert.Equal(t, 5, cfg.Pipeline.GeneralRulesK)
	assert.Equal(t, 5, cfg.Pipeline.SuccessfulComparablesLimit)
	assert.InDelta(t, 0.2, cfg.Pipeline.PriceBand, 1e-9)
	assert.False(t, cfg.Pipeline.PersistOnReoptimize)

	assert.Equal(t, "increasing moderately", cfg.Market.MaterialsTrend)
	assert.Equal(t, []string{"log"}, cfg.Notifications.Sinks)
	assert.Equal(t, "text-embedding-3-small", cfg.Embeddings.Model)
	assert.Equal(t, cfg.Oracle.BaseURL, cfg.Embeddings.BaseURL)
}

func TestLoadFromFile_ExpandsEnvAndOverrides(t *testing.T) {
	t.Setenv("QUOTE_TEST_PG_HOST", "pg.internal")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	body := `
database:
  postgres:
    host: ${QUOTE_TEST_PG_HOST}
    database: quotes
    user: quotes
  elasticsearch:
    url: http://es:9200
pipeline:
  persist_on_reoptimize: true
  similar_projects_k: 8
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.Equal(t, "sk-test", cfg.Embeddings.APIKey)
	assert.True(t, cfg.Pipeline.PersistOnReoptimize)
	assert.Equal(t, 8, cfg.Pipeline.SimilarProjectsK)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			body:    "database:\n  elasticsearch:\n    url: http://es:9200\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "missing elasticsearch",
			body:    "database:\n  postgres:\n    host: h\n    database: d\n    user: u\n",
			wantErr: "database.elasticsearch.addresses or url is required",
		},
		{
			name:    "camunda enabled without broker",
			body:    minimalYAML + "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "redis sink without redis",
			body:    minimalYAML + "notifications:\n  sinks: [log, redis]\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "unknown sink",
			body:    minimalYAML + "notifications:\n  sinks: [pager]\n",
			wantErr: "unknown sink",
		},
		{
			name:    "too many comparables",
			body:    minimalYAML + "pipeline:\n  max_comparables: 15\n",
			wantErr: "pipeline.max_comparables must be between 1 and 10",
		},
		{
			name:    "price band out of range",
			body:    minimalYAML + "pipeline:\n  price_band: 1.5\n",
			wantErr: "pipeline.price_band",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"process-quote-request": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	got := GetWorkerConfig(cfg, "process-quote-request")
	assert.Equal(t, 2, got.MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "process-quote-request"))

	def := GetWorkerConfig(cfg, "reoptimize-quote")
	assert.True(t, def.Enabled)
	assert.Equal(t, 120000, def.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "reoptimize-quote"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", p.GetDSN())
}
