// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top of
// it, applies environment overrides and defaults, then validates.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env", "../../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known variables when the YAML left them blank.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Oracle.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Embeddings.APIKey, "OPENAI_API_KEY")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setIfEmpty(&cfg.Notifications.AWS.SNS.TopicARN, "QUOTE_FEEDBACK_TOPIC_ARN")
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "quotegenius"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.ProjectsIndex == "" {
		cfg.Database.Elasticsearch.ProjectsIndex = "quote-projects"
	}
	if cfg.Database.Elasticsearch.RulesIndex == "" {
		cfg.Database.Elasticsearch.RulesIndex = "quote-business-rules"
	}

	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.openai.com"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4-turbo"
	}
	if cfg.Oracle.MaxTokens == 0 {
		cfg.Oracle.MaxTokens = 2000
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 60000
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = cfg.Oracle.BaseURL
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.Dimensions == 0 {
		cfg.Embeddings.Dimensions = 1536
	}
	if cfg.Embeddings.Timeout == 0 {
		cfg.Embeddings.Timeout = 15000
	}

	if cfg.Pipeline.SimilarProjectsK == 0 {
		cfg.Pipeline.SimilarProjectsK = 5
	}
	if cfg.Pipeline.MaxComparables == 0 {
		cfg.Pipeline.MaxComparables = 10
	}
	if cfg.Pipeline.CustomerRulesK == 0 {
		cfg.Pipeline.CustomerRulesK = 10
	}
	if cfg.Pipeline.GeneralRulesK == 0 {
		cfg.Pipeline.GeneralRulesK = 5
	}
	if cfg.Pipeline.SuccessfulComparablesLimit == 0 {
		cfg.Pipeline.SuccessfulComparablesLimit = 5
	}
	if cfg.Pipeline.PriceBand == 0 {
		cfg.Pipeline.PriceBand = 0.2
	}
	if cfg.Pipeline.NotifyTimeout == 0 {
		cfg.Pipeline.NotifyTimeout = 5000
	}

	if cfg.Market.MaterialsTrend == "" {
		cfg.Market.MaterialsTrend = "increasing moderately"
	}
	if cfg.Market.CompetitionLevel == "" {
		cfg.Market.CompetitionLevel = "highly competitive"
	}
	if cfg.Market.LaborMarket == "" {
		cfg.Market.LaborMarket = "tight"
	}
	if cfg.Market.EconomicOutlook == "" {
		cfg.Market.EconomicOutlook = "stable"
	}

	if len(cfg.Notifications.Sinks) == 0 {
		cfg.Notifications.Sinks = []string{"log"}
	}
	if cfg.Notifications.RedisStream == "" {
		cfg.Notifications.RedisStream = "quote:feedback"
	}
	if cfg.Notifications.StreamMaxLen == 0 {
		cfg.Notifications.StreamMaxLen = 10000
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
	if cfg.Observability.MetricsAddress == "" {
		cfg.Observability.MetricsAddress = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 120000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// MaxComparablesLimit caps how many comparables reach the generation prompt.
const MaxComparablesLimit = 10

func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	needsRedis := cfg.Embeddings.Enabled && cfg.Embeddings.CacheTTL > 0
	for _, sink := range cfg.Notifications.Sinks {
		switch sink {
		case "log", "sns", "ses":
		case "redis":
			needsRedis = true
		default:
			return fmt.Errorf("notifications.sinks: unknown sink %q", sink)
		}
	}
	if needsRedis && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required for the embedding cache or redis notifications")
	}

	if cfg.Pipeline.MaxComparables < 0 || cfg.Pipeline.MaxComparables > MaxComparablesLimit {
		return fmt.Errorf("pipeline.max_comparables must be between 1 and %d", MaxComparablesLimit)
	}
	if cfg.Pipeline.PriceBand < 0 || cfg.Pipeline.PriceBand >= 1 {
		return fmt.Errorf("pipeline.price_band must be in [0, 1)")
	}
	if cfg.Embeddings.Enabled && cfg.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the named worker's settings, or defaults when absent.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       120000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled reports whether a worker is switched on; unknown workers are enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
