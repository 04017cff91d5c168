package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/outbox"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

var (
	mPicked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_picked_total", Help: "Messages picked into processing.",
	})
	mResult = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_processed_total", Help: "Picked messages by result (ok, retry, failed).",
	}, []string{"result"})
	mTickDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "outbox_tick_duration_seconds", Help: "Tick duration.",
		Buckets: prometheus.DefBuckets,
	})
	mBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_last_batch_size", Help: "Size of last picked batch.",
	})
)

type RunnerConfig struct {
	Workers   int
	BatchSize int
	Tick      time.Duration
	// InProgressTTL is how long a picked message stays invisible to other workers.
	InProgressTTL time.Duration
}

func (c *RunnerConfig) defaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.InProgressTTL <= 0 {
		c.InProgressTTL = 30 * time.Second
	}
}

// Runner relays outbox rows to their handlers. Delivery is at least once: a row
// whose handler failed with a retryable error is picked again after InProgressTTL,
// a row that fails permanently is parked as FAILED.
type Runner struct {
	log      *zap.Logger
	repo     outbox.Repository
	dispatch outbox.GlobalHandler
	cfg      RunnerConfig
}

func NewOutboxRunner(log *zap.Logger, repo outbox.Repository, dispatch outbox.GlobalHandler, cfg RunnerConfig) *Runner {
	cfg.defaults()
	return &Runner{
		log:      log.With(zap.String("component", "outbox.runner")),
		repo:     repo,
		dispatch: dispatch,
		cfg:      cfg,
	}
}

// Run starts the workers and blocks until ctx is cancelled and every worker has returned.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := range r.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, i)
		}()
	}
	wg.Wait()
}

func (r *Runner) worker(ctx context.Context, id int) {
	log := r.log.With(zap.Int("worker", id))
	log.Info("outbox worker started", zap.Duration("tick", r.cfg.Tick))

	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stop")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick picks one batch, dispatches every message and records the outcome.
// It returns the number of messages delivered.
func (r *Runner) Tick(ctx context.Context) int {
	t0 := time.Now()
	defer func() { mTickDur.Observe(time.Since(t0).Seconds()) }()

	ctx, span := otel.Tracer("outbox.runner").Start(ctx, "outbox.tick",
		trace.WithAttributes(attribute.Int("batch.limit", r.cfg.BatchSize)))
	defer span.End()

	messages, err := r.repo.PickBatch(ctx, r.cfg.BatchSize, r.cfg.InProgressTTL)
	if err != nil {
		span.RecordError(err)
		obs.WithTrace(ctx, r.log).Error("outbox pick error", zap.Error(err))
		return 0
	}
	mPicked.Add(float64(len(messages)))
	mBatchSize.Set(float64(len(messages)))

	okKeys := make([]string, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		err := r.deliver(ctx, m)
		switch {
		case err == nil:
			okKeys = append(okKeys, m.IdempotencyKey)
			mResult.WithLabelValues("ok").Inc()
		case retry.IsRetryable(err):
			mResult.WithLabelValues("retry").Inc()
		default:
			mResult.WithLabelValues("failed").Inc()
			if ferr := r.repo.MarkFailed(ctx, m.IdempotencyKey, err.Error()); ferr != nil {
				obs.WithTrace(ctx, r.log).Error("mark failed error", zap.String("key", m.IdempotencyKey), zap.Error(ferr))
			}
		}
	}

	if err := r.repo.MarkSuccess(ctx, okKeys); err != nil {
		span.RecordError(err)
		obs.WithTrace(ctx, r.log).Error("mark success error", zap.Error(err))
		return 0
	}
	return len(okKeys)
}

// deliver runs the handler for m inside the trace that enqueued it.
func (r *Runner) deliver(ctx context.Context, m *outbox.Message) error {
	parent := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
		"traceparent": m.Traceparent,
		"tracestate":  m.Tracestate,
		"baggage":     m.Baggage,
	})
	ctx, span := otel.Tracer("outbox.runner").Start(parent, "outbox.dispatch",
		trace.WithAttributes(
			attribute.String("outbox.key", m.IdempotencyKey),
			attribute.Int("outbox.kind", int(m.Kind)),
			attribute.Int("outbox.attempts", m.Attempts),
		),
	)
	defer span.End()

	err := r.dispatchOne(ctx, m)
	if err != nil {
		span.RecordError(err)
		obs.WithTrace(ctx, r.log).Error("outbox delivery failed",
			zap.String("key", m.IdempotencyKey),
			zap.Int("kind", int(m.Kind)),
			zap.Int("attempts", m.Attempts),
			zap.Bool("permanent", !retry.IsRetryable(err)),
			zap.Error(err))
	}
	return err
}

func (r *Runner) dispatchOne(ctx context.Context, m *outbox.Message) error {
	h, err := r.dispatch(m.Kind)
	if err != nil {
		return retry.Permanent(err)
	}
	return h(ctx, m.Data)
}
