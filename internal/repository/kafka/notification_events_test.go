package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

func TestNotificationCreated_WireRoundTrip(t *testing.T) {
	in := NotificationCreated{NotificationID: 812, LocationID: 3, Ts: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)}

	msg, err := in.ToProto()
	require.NoError(t, err)
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)

	var got NotificationCreated
	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(_ context.Context, key []byte, m *structpb.Struct) error {
			assert.Equal(t, "3", string(key))
			got, err = NotificationCreatedFromProto(m)
			return err
		})
	require.NoError(t, h(context.Background(), KeyFromInt64(3), raw))
	assert.Equal(t, in, got)
}

func TestNotificationCreatedFromProto_MissingFields(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"location_id": 1})
	require.NoError(t, err)
	_, err = NotificationCreatedFromProto(s)
	assert.Error(t, err)

	s, err = structpb.NewStruct(map[string]any{"notification_id": 1})
	require.NoError(t, err)
	_, err = NotificationCreatedFromProto(s)
	assert.Error(t, err)
}

func TestProtoHandler_BadPayload(t *testing.T) {
	h := ProtoHandler(func() *structpb.Struct { return &structpb.Struct{} },
		func(context.Context, []byte, *structpb.Struct) error { return nil })
	err := h(context.Background(), nil, []byte{0xff, 0xff, 0xff})
	require.Error(t, err)
	assert.False(t, retry.IsRetryable(err), "a payload that cannot decode is skipped")
}
