package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

type noWait struct{}

func (noWait) Next(int) time.Duration { return time.Millisecond }

// fakeReader serves msgs in order, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	fetchErrs []error
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func run(t *testing.T, r *fakeReader, h Handler, until func() bool) {
	t.Helper()
	c := newConsumer(r, &ConsumerConfig{Topic: "t", GroupID: "g", Logger: zap.NewNop(), Backoff: noWait{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, h) }()
	require.Eventually(t, until, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestConsumer_CommitsAfterSuccess(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}}}
	var seen []string
	var mu sync.Mutex
	run(t, r, func(_ context.Context, _, v []byte) error {
		mu.Lock()
		seen = append(seen, string(v))
		mu.Unlock()
		return nil
	}, func() bool { return len(r.commits()) == 2 })
	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestConsumer_RedeliversUntilHandled(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7, Key: []byte("a")}, {Offset: 8, Key: []byte("b")}}}
	calls := map[string]int{}
	var mu sync.Mutex
	run(t, r, func(_ context.Context, k, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls[string(k)]++
		if string(k) == "a" && calls["a"] < 3 {
			return errors.New("smtp down")
		}
		return nil
	}, func() bool { return len(r.commits()) == 2 })
	assert.Equal(t, []int64{7, 8}, r.commits(), "the failing offset is not committed past")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a": 3, "b": 1}, calls)
}

func TestConsumer_SkipsPermanentFailures(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 3}}}
	n := 0
	run(t, r, func(context.Context, []byte, []byte) error {
		n++
		return retry.Permanent(errors.New("garbage"))
	}, func() bool { return len(r.commits()) == 1 })
	assert.Equal(t, 1, n)
}

func TestConsumer_FetchErrorsAreRetried(t *testing.T) {
	r := &fakeReader{
		fetchErrs: []error{errors.New("broker gone"), errors.New("broker gone")},
		msgs:      []kafka.Message{{Offset: 11}},
	}
	run(t, r, func(context.Context, []byte, []byte) error { return nil },
		func() bool { return len(r.commits()) == 1 })
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "t", zap.NewNop())
	require.NoError(t, p.Publish(context.Background(), KeyFromInt64(42), []byte("v")))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, "v", string(w.msgs[0].Value))

	w.err = errors.New("no leader")
	assert.ErrorIs(t, p.Publish(context.Background(), nil, nil), w.err)
}

func TestHeaderCarrier(t *testing.T) {
	var hs []kafka.Header
	c := headerCarrier{&hs}
	c.Set("traceparent", "a")
	c.Set("baggage", "b")
	c.Set("traceparent", "c")
	assert.Equal(t, "c", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Len(t, hs, 2)
}
