package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	domainoutbox "github.com/NordCoder/StillbirthNotify/internal/domain/outbox"
	"github.com/NordCoder/StillbirthNotify/internal/outbox"
)

type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, key string, kind domainoutbox.Kind, data []byte) error
}

type Usecase struct {
	log   *zap.Logger
	repo  notification.Repo
	tx    Transactor
	queue Enqueuer
	zone  *time.Location
	now   func() time.Time
}

// NewUseCase takes the zone facilities date their notifications in; nil means UTC.
func NewUseCase(repo notification.Repo, tx Transactor, queue Enqueuer, zone *time.Location, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	if zone == nil {
		zone = time.UTC
	}
	return &Usecase{
		log:   log.With(zap.String("component", "notifications.usecase")),
		repo:  repo,
		tx:    tx,
		queue: queue,
		zone:  zone,
		now:   time.Now,
	}
}

// Create validates and stores n. The NotificationCreated outbox row commits together with it,
// so an alert is published if and only if the notification exists.
func (u *Usecase) Create(ctx context.Context, n *notification.Notification) error {
	if err := n.Validate(u.now().In(u.zone)); err != nil {
		return err
	}

	err := u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.repo.Create(ctx, n); err != nil {
			return err
		}
		data, err := json.Marshal(outbox.NotificationCreatedPayload{
			NotificationID: n.ID,
			LocationID:     n.LocationID,
			At:             n.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		return u.queue.Enqueue(ctx, uuid.NewString(), domainoutbox.KindNotificationCreated, data)
	})
	if err != nil {
		return err
	}

	u.log.Info("notification created",
		zap.Int64("id", n.ID),
		zap.Int64("location_id", n.LocationID),
		zap.Int("babies", len(n.Babies)),
	)
	return nil
}

func (u *Usecase) Get(ctx context.Context, id int64) (*notification.Notification, error) {
	return u.repo.GetByID(ctx, id)
}
