package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	kafkax "github.com/NordCoder/StillbirthNotify/internal/repository/kafka"
)

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler
}

func (c *Controller) Handler() kafkax.Handler {
	return kafkax.ProtoHandler(
		func() *structpb.Struct { return &structpb.Struct{} },
		func(ctx context.Context, _ []byte, msg *structpb.Struct) error {
			ev, err := kafkax.NotificationCreatedFromProto(msg)
			if err != nil {
				c.Log.Warn("notification-created: bad payload", zap.Error(err))
				return nil
			}
			if ev.NotificationID <= 0 {
				c.Log.Warn("notification-created: invalid notification_id", zap.Int64("notification_id", ev.NotificationID))
				return nil
			}
			return c.UC.HandleNotificationCreated(ctx, NotificationCreated{
				NotificationID: ev.NotificationID,
				LocationID:     ev.LocationID,
				At:             ev.Ts,
			})
		},
	)
}

func (c *Controller) Run(ctx context.Context) error {
	if err := c.Sub.Consume(ctx, c.Handler()); err != nil && !errors.Is(err, context.Canceled) {
		c.Log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return nil
}
