package kafka

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

type Handler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers       []string
	GroupID       string
	Topic         string
	FromBeginning bool
	Logger        *zap.Logger
	// Backoff paces both fetch retries and redelivery of a failed message.
	Backoff retry.Backoff
}

// Consumer reads one topic in a consumer group and commits a message only once
// its handler succeeded or gave up with a retry.Permanent error. A failing message
// is retried in place, because committing a later offset would drop it.
type Consumer struct {
	r       messageReader
	topic   string
	log     *zap.Logger
	backoff retry.Backoff
}

func NewConsumer(cfg *ConsumerConfig) *Consumer {
	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:               cfg.Brokers,
		GroupID:               cfg.GroupID,
		Topic:                 cfg.Topic,
		StartOffset:           start,
		WatchPartitionChanges: true,
		MinBytes:              1,
		MaxBytes:              1 << 20,
		MaxWait:               time.Second,
		SessionTimeout:        10 * time.Second,
		RebalanceTimeout:      15 * time.Second,
		HeartbeatInterval:     3 * time.Second,
	})
	return newConsumer(r, cfg)
}

func newConsumer(r messageReader, cfg *ConsumerConfig) *Consumer {
	l := cfg.Logger
	if l == nil {
		l = zap.L()
	}
	b := cfg.Backoff
	if b == nil {
		b = retry.ExpoJitter{Base: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2}
	}
	return &Consumer{
		r:     r,
		topic: cfg.Topic,
		log: l.With(
			zap.String("component", "kafka.consumer"),
			zap.String("topic", cfg.Topic),
			zap.String("group", cfg.GroupID),
		),
		backoff: b,
	}
}

// BootstrapConsumer makes sure the topic exists before joining the group.
// A failure is only logged: the reader keeps polling until the topic shows up.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig) *Consumer {
	if err := EnsureTopic(ctx, cfg.Brokers, TopicSpec{Name: cfg.Topic}, cfg.Logger); err != nil && cfg.Logger != nil {
		cfg.Logger.Warn("ensure topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return NewConsumer(cfg)
}

// Consume blocks until ctx is done.
func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	c.log.Info("consumer started")
	fetchFails := 0
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped")
				return ctx.Err()
			}
			if !errors.Is(err, io.EOF) {
				c.log.Warn("fetch failed", zap.Error(err), zap.Int("attempt", fetchFails+1))
			}
			if err := c.sleep(ctx, fetchFails); err != nil {
				return err
			}
			fetchFails++
			continue
		}
		fetchFails = 0

		if err := c.handle(ctx, msg, h); err != nil {
			c.log.Info("consumer stopped")
			return err
		}
		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("commit failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// handle runs h until it succeeds or fails permanently. It returns only ctx errors.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message, h Handler) error {
	log := c.log.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
	for attempt := 0; ; attempt++ {
		err := c.dispatch(ctx, msg, h)
		switch {
		case err == nil:
			consumedTotal.WithLabelValues(c.topic, "ok").Inc()
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case !retry.IsRetryable(err):
			consumedTotal.WithLabelValues(c.topic, "skipped").Inc()
			log.Error("message skipped", zap.Error(err))
			return nil
		}
		consumedTotal.WithLabelValues(c.topic, "retry").Inc()
		log.Warn("handler failed; redelivering", zap.Int("attempt", attempt+1), zap.Error(err))
		if err := c.sleep(ctx, attempt); err != nil {
			return err
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message, h Handler) error {
	msgCtx := otel.GetTextMapPropagator().Extract(ctx, headerCarrier{&msg.Headers})
	msgCtx, span := otel.Tracer("kafka.consumer").Start(msgCtx, "kafka.consume "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()
	err := h(msgCtx, msg.Key, msg.Value)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (c *Consumer) sleep(ctx context.Context, attempt int) error {
	t := time.NewTimer(c.backoff.Next(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Consumer) Close() error { return c.r.Close() }
