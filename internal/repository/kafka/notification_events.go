package kafka

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/StillbirthNotify/internal/domain/kafka"
)

// NotificationCreated is the escalation event emitted once per stored notification.
type NotificationCreated struct {
	NotificationID int64
	LocationID     int64
	Ts             time.Time
}

func (e NotificationCreated) ToProto() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"notification_id": e.NotificationID,
		"location_id":     e.LocationID,
		"ts":              e.Ts.UTC().Format(time.RFC3339Nano),
	})
}

func NotificationCreatedFromProto(s *structpb.Struct) (NotificationCreated, error) {
	var e NotificationCreated
	fields := s.GetFields()

	nid, ok := fields["notification_id"]
	if !ok {
		return e, fmt.Errorf("notification_created: missing notification_id")
	}
	lid, ok := fields["location_id"]
	if !ok {
		return e, fmt.Errorf("notification_created: missing location_id")
	}
	e.NotificationID = int64(nid.GetNumberValue())
	e.LocationID = int64(lid.GetNumberValue())

	if ts := fields["ts"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return e, fmt.Errorf("notification_created: ts: %w", err)
		}
		e.Ts = t
	}
	return e, nil
}

type NotificationEventsKafka struct {
	p   *Producer
	now func() time.Time
}

func NewNotificationEventsKafka(p *Producer) *NotificationEventsKafka {
	return &NotificationEventsKafka{p: p, now: time.Now}
}

var _ kafka.NotificationEvents = (*NotificationEventsKafka)(nil)

func (e *NotificationEventsKafka) PublishNotificationCreated(ctx context.Context, notificationID, locationID int64) error {
	msg, err := NotificationCreated{
		NotificationID: notificationID,
		LocationID:     locationID,
		Ts:             e.now(),
	}.ToProto()
	if err != nil {
		return fmt.Errorf("build notification_created: %w", err)
	}
	return e.p.PublishProto(ctx, KeyFromInt64(locationID), msg)
}
