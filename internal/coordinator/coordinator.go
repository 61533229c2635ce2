// internal/coordinator/coordinator.go

// Package coordinator sequences the quoting workflows. It holds no
// per-request state: every handle is injected at construction and concurrent
// calls are safe.
package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quotegenius/internal/common/config"
	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/llm"
	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/notify"
	"quotegenius/internal/store/relational"
	"quotegenius/internal/store/similarity"
	analyzerequirements "quotegenius/internal/workers/agents/analyze-requirements"
	generatequote "quotegenius/internal/workers/agents/generate-quote"
	generaterecommendations "quotegenius/internal/workers/agents/generate-recommendations"
	marketinsights "quotegenius/internal/workers/agents/market-insights"
	optimizepricing "quotegenius/internal/workers/agents/optimize-pricing"
	findcomparables "quotegenius/internal/workers/retrieval/find-comparables"
	lookuprules "quotegenius/internal/workers/retrieval/lookup-rules"
)

const defaultNotifyTimeout = 5 * time.Second

type Dependencies struct {
	Oracle   llm.Oracle
	Quotes   relational.Store
	Projects similarity.Store
	Rules    similarity.Store
	// Notifier defaults to a log-only sink.
	Notifier notify.Notifier
	// Tracer defaults to a no-op tracer.
	Tracer trace.Tracer
}

type Options struct {
	PersistOnReoptimize bool
	NotifyTimeout       time.Duration
}

type Coordinator struct {
	analyzer    *analyzerequirements.Handler
	comparables *findcomparables.Handler
	rules       *lookuprules.Handler
	generator   *generatequote.Handler
	optimizer   *optimizepricing.Handler
	recommender *generaterecommendations.Handler
	insights    *marketinsights.Handler

	quotes   relational.Store
	notifier notify.Notifier
	tracer   trace.Tracer
	logger   logger.Logger
	options  Options

	inflight sync.WaitGroup
}

func New(cfg *config.Config, deps Dependencies, log logger.Logger) *Coordinator {
	opts := Options{
		PersistOnReoptimize: cfg.Pipeline.PersistOnReoptimize,
		NotifyTimeout:       time.Duration(cfg.Pipeline.NotifyTimeout) * time.Millisecond,
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("coordinator")
	}

	return &Coordinator{
		analyzer:    analyzerequirements.NewHandler(deps.Oracle, log),
		comparables: findcomparables.NewHandler(findcomparables.LoadConfig(cfg.Pipeline), deps.Projects, deps.Quotes, log),
		rules:       lookuprules.NewHandler(lookuprules.LoadConfig(cfg.Pipeline), deps.Rules, log),
		generator:   generatequote.NewHandler(deps.Oracle, log),
		optimizer:   optimizepricing.NewHandler(optimizepricing.LoadConfig(cfg.Market), deps.Oracle, deps.Quotes, log),
		recommender: generaterecommendations.NewHandler(deps.Oracle, log),
		insights:    marketinsights.NewHandler(deps.Oracle, log),
		quotes:      deps.Quotes,
		notifier:    notifier,
		tracer:      tracer,
		logger:      log.WithFields(map[string]interface{}{"component": "coordinator"}),
		options:     opts,
	}
}

// ProcessQuoteRequest runs the new-quote workflow. Stage failures are fatal;
// a failed persist is not, and is reported through Persisted=false.
func (c *Coordinator) ProcessQuoteRequest(ctx context.Context, req models.QuoteRequest) (resp *models.QuoteResponse, err error) {
	const wf = WorkflowNewQuote
	defer func() { c.finish(wf, err) }()

	var analysis *analyzerequirements.Output
	if err := c.step(ctx, wf, StateAnalyzeRequirements, "", func(ctx context.Context) error {
		var err error
		analysis, err = c.analyzer.Execute(ctx, &analyzerequirements.Input{Request: req})
		return err
	}); err != nil {
		return nil, err
	}
	c.recordDecode(StateAnalyzeRequirements, analysis.Analysis)

	var comparables *findcomparables.Output
	if err := c.step(ctx, wf, StateRetrieveComparables, "", func(ctx context.Context) error {
		var err error
		comparables, err = c.comparables.Execute(ctx, &findcomparables.Input{
			CustomerID:         req.CustomerID,
			ProjectDescription: req.ProjectDescription,
		})
		return err
	}); err != nil {
		return nil, err
	}
	c.recordDegraded(comparables.Degraded)

	var rules *lookuprules.Output
	if err := c.step(ctx, wf, StateLookupRules, "", func(ctx context.Context) error {
		var err error
		rules, err = c.rules.Execute(ctx, &lookuprules.Input{CustomerID: req.CustomerID})
		return err
	}); err != nil {
		return nil, err
	}
	c.recordDegraded(rules.Degraded)

	var generated *generatequote.Output
	if err := c.step(ctx, wf, StateGenerateQuote, "", func(ctx context.Context) error {
		var err error
		generated, err = c.generator.Execute(ctx, &generatequote.Input{
			Request:     req,
			Analysis:    analysis.Analysis,
			Comparables: comparables.Comparables,
			Rules:       rules.Rules,
		})
		return err
	}); err != nil {
		return nil, err
	}
	quoteID := generated.Quote.ID
	c.recordDecode(StateGenerateQuote, generated.Quote.Generation)

	quote, err := c.optimizeAndRecommend(ctx, wf, generated.Quote, comparables.Comparables)
	if err != nil {
		return nil, err
	}

	persisted := c.persist(ctx, wf, quote)

	if err := c.step(ctx, wf, StateRespond, quoteID, func(context.Context) error {
		resp = models.NewQuoteResponse(quote, persisted)
		return nil
	}); err != nil {
		return nil, err
	}

	c.logger.Info("Quote request processed", map[string]interface{}{
		"quoteId":    quoteID,
		"customerId": req.CustomerID,
		"totalPrice": quote.TotalPrice,
		"persisted":  persisted,
	})
	return resp, nil
}

// ReoptimizeQuote re-prices a stored quote against accepted quotes of similar
// size. An unknown id fails with QUOTE_NOT_FOUND before anything else runs.
func (c *Coordinator) ReoptimizeQuote(ctx context.Context, quoteID string) (resp *models.QuoteResponse, err error) {
	const wf = WorkflowReoptimize
	defer func() { c.finish(wf, err) }()

	if strings.TrimSpace(quoteID) == "" {
		return nil, apperrors.Annotate(apperrors.NewInvalidInputError("quoteId is required"),
			map[string]interface{}{"workflow": string(wf)})
	}

	var stored *models.Quote
	if err := c.step(ctx, wf, StateFetchQuote, quoteID, func(ctx context.Context) error {
		var err error
		stored, err = c.quotes.GetQuote(ctx, quoteID)
		return err
	}); err != nil {
		return nil, err
	}

	var successful *findcomparables.Output
	if err := c.step(ctx, wf, StateFindSuccessfulComparables, quoteID, func(ctx context.Context) error {
		var err error
		successful, err = c.comparables.FindSuccessful(ctx, &findcomparables.SuccessfulInput{
			QuoteID:    stored.ID,
			TotalPrice: stored.TotalPrice,
		})
		return err
	}); err != nil {
		return nil, err
	}
	c.recordDegraded(successful.Degraded)

	quote, err := c.optimizeAndRecommend(ctx, wf, *stored, successful.Comparables)
	if err != nil {
		return nil, err
	}

	persisted := false
	if c.options.PersistOnReoptimize {
		persisted = c.persist(ctx, wf, quote)
	}

	if err := c.step(ctx, wf, StateRespond, quoteID, func(context.Context) error {
		resp = models.NewQuoteResponse(quote, persisted)
		return nil
	}); err != nil {
		return nil, err
	}

	c.logger.Info("Quote reoptimized", map[string]interface{}{
		"quoteId":       quoteID,
		"originalPrice": stored.TotalPrice,
		"totalPrice":    quote.TotalPrice,
		"persisted":     persisted,
	})
	return resp, nil
}

// ProcessFeedback records the customer's decision and moves the quote to the
// matching status. The optimizer is notified in the background; that step
// never affects the acknowledgement.
func (c *Coordinator) ProcessFeedback(ctx context.Context, fb models.Feedback) (ack *models.FeedbackAck, err error) {
	const wf = WorkflowFeedback
	defer func() { c.finish(wf, err) }()

	if strings.TrimSpace(fb.QuoteID) == "" {
		return nil, apperrors.Annotate(apperrors.NewInvalidInputError("quoteId is required"),
			map[string]interface{}{"workflow": string(wf)})
	}

	var record *models.Feedback
	if err := c.step(ctx, wf, StateRecordFeedback, fb.QuoteID, func(ctx context.Context) error {
		var err error
		record, err = c.quotes.AppendFeedback(ctx, fb.QuoteID, fb.Text, fb.Accepted)
		return err
	}); err != nil {
		return nil, err
	}

	status := models.StatusForDecision(fb.Accepted)
	if err := c.step(ctx, wf, StateTransitionStatus, fb.QuoteID, func(ctx context.Context) error {
		return c.quotes.SetQuoteStatus(ctx, fb.QuoteID, status)
	}); err != nil {
		return nil, err
	}

	c.notifyOptimizer(ctx, models.FeedbackEvent{
		QuoteID:    fb.QuoteID,
		Accepted:   fb.Accepted,
		Status:     status,
		Feedback:   fb.Text,
		RecordedAt: record.CreatedAt,
	})

	if err := c.step(ctx, wf, StateRespond, fb.QuoteID, func(context.Context) error {
		ack = &models.FeedbackAck{
			Status:      "success",
			Message:     "Feedback recorded successfully",
			QuoteID:     fb.QuoteID,
			QuoteStatus: status,
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return ack, nil
}

// MarketInsights summarises quote history and asks the oracle for a report.
func (c *Coordinator) MarketInsights(ctx context.Context) (report *models.InsightsReport, err error) {
	const wf = WorkflowMarketInsights
	defer func() { c.finish(wf, err) }()

	var analytics *models.Analytics
	if err := c.step(ctx, wf, StateAggregateAnalytics, "", func(ctx context.Context) error {
		var err error
		analytics, err = c.quotes.AggregateAnalytics(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	var out *marketinsights.Output
	if err := c.step(ctx, wf, StateGenerateInsights, "", func(ctx context.Context) error {
		var err error
		out, err = c.insights.Execute(ctx, &marketinsights.Input{Analytics: *analytics})
		return err
	}); err != nil {
		return nil, err
	}

	if err := c.step(ctx, wf, StateRespond, "", func(context.Context) error {
		report = &out.Report
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// Drain blocks until background notifications finish or ctx is done.
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) optimizeAndRecommend(ctx context.Context, wf Workflow, quote models.Quote, comparables []models.Comparable) (models.Quote, error) {
	var optimized *optimizepricing.Output
	if err := c.step(ctx, wf, StateOptimizePricing, quote.ID, func(ctx context.Context) error {
		var err error
		optimized, err = c.optimizer.Execute(ctx, &optimizepricing.Input{Quote: quote, Comparables: comparables})
		return err
	}); err != nil {
		return models.Quote{}, err
	}
	c.recordDegraded(optimized.Degraded)
	c.recordDecode(StateOptimizePricing, optimized.Recommendations)

	var recs *generaterecommendations.Output
	if err := c.step(ctx, wf, StateGenerateRecommendations, quote.ID, func(ctx context.Context) error {
		var err error
		recs, err = c.recommender.Execute(ctx, &generaterecommendations.Input{Quote: optimized.Quote})
		return err
	}); err != nil {
		return models.Quote{}, err
	}

	result := optimized.Quote
	result.Recommendations = recs.Recommendations
	return result, nil
}

// persist reports whether the quote was stored. Failures are logged only.
func (c *Coordinator) persist(ctx context.Context, wf Workflow, quote models.Quote) bool {
	err := c.step(ctx, wf, StatePersist, quote.ID, func(ctx context.Context) error {
		return c.quotes.PutQuote(ctx, quote)
	})
	if err != nil {
		c.logger.Warn("Quote was not persisted, responding with the unsaved quote", map[string]interface{}{
			"workflow": string(wf),
			"quoteId":  quote.ID,
		})
		return false
	}
	return true
}

func (c *Coordinator) notifyOptimizer(ctx context.Context, event models.FeedbackEvent) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.options.NotifyTimeout)
		defer cancel()

		_ = c.step(nctx, WorkflowFeedback, StateNotifyOptimizer, event.QuoteID, func(ctx context.Context) error {
			return c.notifier.Notify(ctx, event)
		})
	}()
}
