package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type TopicSpec struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	// MaxWait bounds WaitLeaders after creation.
	MaxWait time.Duration
}

func (s *TopicSpec) defaults() {
	if s.NumPartitions <= 0 {
		s.NumPartitions = 1
	}
	if s.ReplicationFactor <= 0 {
		s.ReplicationFactor = 1
	}
	if s.MaxWait <= 0 {
		s.MaxWait = 5 * time.Second
	}
}

// EnsureTopic creates the topic through the cluster controller and waits until
// every partition has a leader. An existing topic is not an error.
func EnsureTopic(ctx context.Context, brokers []string, spec TopicSpec, log *zap.Logger) error {
	spec.defaults()
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := dialAny(ctx, brokers)
	if err != nil {
		return err
	}
	ctrl, err := conn.Controller()
	_ = conn.Close()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}

	cc, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.NumPartitions,
		ReplicationFactor: spec.ReplicationFactor,
	})
	_ = cc.Close()
	switch {
	case err == nil:
		log.Info("topic created", zap.String("topic", spec.Name), zap.Int("partitions", spec.NumPartitions))
	case errors.Is(err, kafka.TopicAlreadyExists):
		log.Debug("topic exists", zap.String("topic", spec.Name))
	default:
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}

	wctx, cancel := context.WithTimeout(ctx, spec.MaxWait)
	defer cancel()
	return WaitLeaders(wctx, brokers, spec.Name)
}

// WaitLeaders polls partition metadata until every partition of topic has a leader.
func WaitLeaders(ctx context.Context, brokers []string, topic string) error {
	backoff := 200 * time.Millisecond
	for {
		if conn, err := dialAny(ctx, brokers); err == nil {
			parts, rerr := conn.ReadPartitions(topic)
			_ = conn.Close()
			if rerr == nil && led(parts) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %s has no leaders: %w", topic, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 2*time.Second)
	}
}

func led(parts []kafka.Partition) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if p.Leader.ID < 0 {
			return false
		}
	}
	return true
}

func dialAny(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	return nil, fmt.Errorf("kafka dial: %w", errors.Join(errs...))
}
