package kafka

import "context"

type NotificationEvents interface {
	PublishNotificationCreated(ctx context.Context, notificationID, locationID int64) error
}
