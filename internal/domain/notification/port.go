package notification

import "context"

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	List(ctx context.Context, f Filter) ([]*Notification, error)
}

type DeliveryRepo interface {
	Create(ctx context.Context, d *Delivery) error
	ListByNotification(ctx context.Context, notificationID int64) ([]*Delivery, error)
}
