package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

func DefaultKafkaPolicy(log *zap.Logger) Policy {
	return logged(log, "outbox", Policy{
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
	})
}

// DefaultMailPolicy is shorter than the Kafka one: the consumer redelivers the event anyway.
func DefaultMailPolicy(log *zap.Logger) Policy {
	return logged(log, "mail", Policy{
		Name:     "smtp_send",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
	})
}

func logged(log *zap.Logger, what string, p Policy) Policy {
	p.Retryable = IsRetryable
	p.OnAttempt = func(i int, err error) {
		if log != nil {
			log.Warn(what+" retry", zap.Int("attempt", i+1), zap.Error(err))
		}
	}
	p.OnExhaust = func(err error) {
		if log != nil && !errors.Is(err, context.Canceled) {
			log.Error(what+" retries exhausted", zap.Error(err))
		}
	}
	return p
}
