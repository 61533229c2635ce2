// internal/common/config/config.go
package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Oracle        OracleConfig            `mapstructure:"oracle"`
	Embeddings    EmbeddingsConfig        `mapstructure:"embeddings"`
	Pipeline      PipelineConfig          `mapstructure:"pipeline"`
	Market        MarketConfig            `mapstructure:"market"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	ProjectsIndex string   `mapstructure:"projects_index"`
	RulesIndex    string   `mapstructure:"rules_index"`
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OracleConfig points at an OpenAI-compatible chat completions endpoint.
type OracleConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// EmbeddingsConfig drives vector search. With Enabled=false the similarity
// store falls back to full-text matching.
type EmbeddingsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	Timeout    int    `mapstructure:"timeout"`   // milliseconds
	CacheTTL   int    `mapstructure:"cache_ttl"` // seconds, 0 disables the Redis cache
}

type PipelineConfig struct {
	SimilarProjectsK           int     `mapstructure:"similar_projects_k"`
	MaxComparables             int     `mapstructure:"max_comparables"`
	CustomerRulesK             int     `mapstructure:"customer_rules_k"`
	GeneralRulesK              int     `mapstructure:"general_rules_k"`
	SuccessfulComparablesLimit int     `mapstructure:"successful_comparables_limit"`
	PriceBand                  float64 `mapstructure:"price_band"`
	PersistOnReoptimize        bool    `mapstructure:"persist_on_reoptimize"`
	NotifyTimeout              int     `mapstructure:"notify_timeout"` // milliseconds
}

// MarketConfig is the static market outlook handed to the pricing optimizer.
type MarketConfig struct {
	MaterialsTrend   string `mapstructure:"materials_trend"`
	CompetitionLevel string `mapstructure:"competition_level"`
	LaborMarket      string `mapstructure:"labor_market"`
	EconomicOutlook  string `mapstructure:"economic_outlook"`
}

type NotificationConfig struct {
	Sinks        []string `mapstructure:"sinks"` // log, redis, sns, ses
	RedisStream  string   `mapstructure:"redis_stream"`
	StreamMaxLen int64    `mapstructure:"stream_max_len"`
	AWS          struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
		SES struct {
			FromEmail string   `mapstructure:"from_email"`
			To        []string `mapstructure:"to"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	MetricsAddress string `mapstructure:"metrics_address"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
