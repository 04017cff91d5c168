package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	Logger       *zap.Logger
}

// Producer writes keyed messages to one topic. Keys go through a hash balancer,
// so events of the same location keep their order.
type Producer struct {
	w     messageWriter
	topic string
	log   *zap.Logger
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: cfg.BatchTimeout,
	}
	return newProducer(w, cfg.Topic, cfg.Logger)
}

func newProducer(w messageWriter, topic string, l *zap.Logger) *Producer {
	if l == nil {
		l = zap.L()
	}
	return &Producer{
		w:     w,
		topic: topic,
		log:   l.With(zap.String("component", "kafka.producer"), zap.String("topic", topic)),
	}
}

func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	ctx, span := otel.Tracer("kafka.producer").Start(ctx, "kafka.produce "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingOperationPublish,
		),
	)
	defer span.End()

	msg := kafka.Message{Key: key, Value: value}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{&msg.Headers})

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		producedTotal.WithLabelValues(p.topic, "error").Inc()
		p.log.Error("kafka write failed", zap.ByteString("key", key), zap.Error(err))
		return err
	}
	producedTotal.WithLabelValues(p.topic, "ok").Inc()
	p.log.Debug("message published", zap.ByteString("key", key), zap.Int("bytes", len(value)))
	return nil
}

func (p *Producer) PublishProto(ctx context.Context, key []byte, m proto.Message) error {
	value, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	return p.Publish(ctx, key, value)
}

func (p *Producer) Close() error { return p.w.Close() }

func KeyFromInt64(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }
