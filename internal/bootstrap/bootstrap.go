// internal/bootstrap/bootstrap.go

// Package bootstrap connects the backing services and assembles the
// coordinator shared by the worker manager and the quotectl CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"quotegenius/internal/common/config"
	"quotegenius/internal/common/database"
	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/common/observability"
	"quotegenius/internal/common/retry"
	"quotegenius/internal/coordinator"
	"quotegenius/internal/notify"
	"quotegenius/internal/store/relational"
	"quotegenius/internal/store/similarity"
)

// Runtime holds every long-lived handle. Close releases them in reverse
// order of acquisition.
type Runtime struct {
	Config        *config.Config
	Observability *observability.Observability
	Postgres      *database.PostgresClient
	Elastic       *database.ElasticsearchClient
	Redis         *database.RedisClient

	Quotes   *relational.PostgresStore
	Projects *similarity.ElasticsearchStore
	Rules    *similarity.ElasticsearchStore
	Notifier *notify.Multi

	Coordinator *coordinator.Coordinator

	logger logger.Logger
}

// Connect dials Postgres, Elasticsearch and Redis concurrently, retrying
// each with backoff.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, logger: log}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	rt.Postgres = pg

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Elastic = es
	rt.Redis = database.NewRedis(cfg.Database.Redis)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return retry.Do(gctx, retry.Default, "PostgreSQL connection", pg.Ping, log)
	})
	g.Go(func() error {
		return retry.Do(gctx, retry.Default, "Elasticsearch connection", es.Ping, log)
	})
	g.Go(func() error {
		return retry.Do(gctx, retry.Default, "Redis connection", rt.Redis.Ping, log)
	})
	if err := g.Wait(); err != nil {
		rt.Close()
		return nil, err
	}
	log.Info("Backing services connected", nil)
	return rt, nil
}

// Build connects the backing services and wires the coordinator on top.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	rt, err := Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rt.Observability = observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)

	embedder := rt.embedder()
	dims := cfg.Embeddings.Dimensions
	rt.Quotes = relational.NewPostgresStore(rt.Postgres.DB, log)
	rt.Projects = similarity.NewElasticsearchStore(rt.Elastic.Client, cfg.Database.Elasticsearch.ProjectsIndex, embedder, dims, log)
	rt.Rules = similarity.NewElasticsearchStore(rt.Elastic.Client, cfg.Database.Elasticsearch.RulesIndex, embedder, dims, log)

	rt.Notifier, err = notify.Build(ctx, cfg.Notifications, rt.Redis.Client, log)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("notifications: %w", err)
	}

	rt.Coordinator = coordinator.New(cfg, coordinator.Dependencies{
		Oracle:   rt.oracle(),
		Quotes:   rt.Quotes,
		Projects: rt.Projects,
		Rules:    rt.Rules,
		Notifier: rt.Notifier,
		Tracer:   rt.Observability.Tracer(),
	}, log)
	return rt, nil
}

// Migrate creates the relational schema and both similarity indices.
func (rt *Runtime) Migrate(ctx context.Context) error {
	if err := rt.Quotes.Migrate(ctx); err != nil {
		return err
	}
	if err := rt.Projects.EnsureIndex(ctx); err != nil {
		return err
	}
	return rt.Rules.EnsureIndex(ctx)
}

// Ready pings every backing service.
func (rt *Runtime) Ready(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.Postgres.Ping(gctx) })
	g.Go(func() error { return rt.Elastic.Ping(gctx) })
	g.Go(func() error { return rt.Redis.Ping(gctx) })
	return g.Wait()
}

func (rt *Runtime) Logger() logger.Logger {
	return rt.logger
}

func (rt *Runtime) oracle() llm.Oracle {
	o := rt.Config.Oracle
	return llm.NewChatClient(llm.ChatConfig{
		BaseURL:      o.BaseURL,
		APIKey:       o.APIKey,
		Model:        o.Model,
		Temperature:  o.Temperature,
		MaxTokens:    o.MaxTokens,
		Timeout:      config.GetDuration(o.Timeout),
		SystemPrompt: o.SystemPrompt,
	})
}

// embedder returns nil when vector search is disabled, which switches the
// similarity stores to full-text matching.
func (rt *Runtime) embedder() llm.Embedder {
	e := rt.Config.Embeddings
	if !e.Enabled {
		return nil
	}

	client := llm.NewEmbeddingsClient(llm.EmbeddingsConfig{
		BaseURL:    e.BaseURL,
		APIKey:     e.APIKey,
		Model:      e.Model,
		Dimensions: e.Dimensions,
		Timeout:    config.GetDuration(e.Timeout),
	})
	if e.CacheTTL <= 0 {
		return client
	}
	return llm.NewCachedEmbedder(client, rt.Redis.Client, time.Duration(e.CacheTTL)*time.Second, rt.logger)
}

// Close drains pending notifications and releases every connection.
func (rt *Runtime) Close() {
	if rt.Coordinator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := rt.Coordinator.Drain(ctx); err != nil {
			rt.logger.Warn("Pending notifications abandoned", map[string]interface{}{"error": err.Error()})
		}
		cancel()
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.Postgres != nil {
		_ = rt.Postgres.Close()
	}
	rt.Observability.Shutdown()
}
