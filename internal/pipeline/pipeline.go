// Package pipeline wires the collection and evaluation runs end to end.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cryptoalert/internal/alert"
	"cryptoalert/internal/core"
	"cryptoalert/internal/metrics"
	"cryptoalert/internal/notifier"
	"cryptoalert/internal/source"
	"cryptoalert/internal/store"
)

// CollectResult summarizes one collection run.
type CollectResult struct {
	Collected int       `json:"collected"`
	Timestamp time.Time `json:"timestamp"`
}

// EvaluateResult summarizes one evaluation run.
type EvaluateResult struct {
	alert.Result
}

// Pipeline owns the two periodic tasks: collecting prices and evaluating
// alert rules. Task failures are reported to the operator through the
// notifier registry before being returned.
type Pipeline struct {
	src       source.PriceSource
	prices    store.PriceStore
	evaluator *alert.Evaluator
	notifiers *notifier.Registry
	metrics   *metrics.Registry
	log       *zap.Logger
}

// New creates a new Pipeline.
func New(src source.PriceSource, prices store.PriceStore, evaluator *alert.Evaluator, notifiers *notifier.Registry, reg *metrics.Registry, log *zap.Logger) *Pipeline {
	return &Pipeline{
		src:       src,
		prices:    prices,
		evaluator: evaluator,
		notifiers: notifiers,
		metrics:   reg,
		log:       log,
	}
}

// CollectPrices fetches the current price of every supported currency and
// records the batch under a single timestamp. A run either records the full
// batch or nothing.
func (p *Pipeline) CollectPrices(ctx context.Context) (CollectResult, error) {
	start := time.Now()

	res, err := p.collect(ctx)
	if err != nil {
		p.metrics.RecordCollect("error", 0, time.Since(start).Seconds())
		p.reportFailure("collect-data", err)
		return res, err
	}

	p.metrics.RecordCollect("success", res.Collected, time.Since(start).Seconds())
	p.log.Info("price collection completed",
		zap.Int("collected", res.Collected),
		zap.Time("timestamp", res.Timestamp),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) collect(ctx context.Context) (CollectResult, error) {
	var res CollectResult

	quotes, err := p.src.FetchAll(ctx)
	if err != nil {
		return res, err
	}
	if len(quotes) == 0 {
		return res, core.WrapError(core.ErrNoData, nil)
	}

	res.Timestamp = time.Now().UTC()
	if err := p.prices.RecordBatch(ctx, quotes, res.Timestamp); err != nil {
		return res, err
	}

	res.Collected = len(quotes)
	return res, nil
}

// EvaluateAlerts runs every active rule against the latest price snapshot.
func (p *Pipeline) EvaluateAlerts(ctx context.Context) (EvaluateResult, error) {
	start := time.Now()

	res, err := p.evaluator.Run(ctx)
	if err != nil {
		p.metrics.RecordEvaluate("error", res.Checked, res.Triggered, time.Since(start).Seconds())
		p.reportFailure("analyze-data", err)
		return EvaluateResult{Result: res}, err
	}

	p.metrics.RecordEvaluate("success", res.Checked, res.Triggered, time.Since(start).Seconds())
	p.log.Info("alert evaluation completed",
		zap.Int("checked", res.Checked),
		zap.Int("triggered", res.Triggered),
		zap.Duration("duration", time.Since(start)),
	)
	return EvaluateResult{Result: res}, nil
}

func (p *Pipeline) reportFailure(taskName string, cause error) {
	p.log.Error("task failed", zap.String("task", taskName), zap.Error(cause))

	for name, err := range p.notifiers.SendFailureAll(taskName, cause.Error()) {
		p.log.Error("failed to deliver failure report",
			zap.String("notifier", name),
			zap.String("task", taskName),
			zap.Error(err),
		)
	}
}
