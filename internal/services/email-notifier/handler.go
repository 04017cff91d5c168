package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/location"
	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/obs"
	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

const channelEmail = "email"

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_messages_consumed_total",
		Help: "NotificationCreated events consumed",
	})
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_emails_sent_total",
		Help: "Emails sent",
	})
	mSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_emails_skipped_total",
		Help: "Recipients skipped because the alert was already delivered",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "email_notifier_errors_total",
		Help: "Errors",
	})
)

type NotificationCreated struct {
	NotificationID int64
	LocationID     int64
	At             time.Time
}

type ParentResolver interface {
	ParentUsers(ctx context.Context, locationID int64) ([]location.UserRef, error)
}

type Handler struct {
	Log           *zap.Logger
	Notifications notification.Repo
	Parents       ParentResolver
	Deliveries    notification.DeliveryRepo
	Out           notification.EmailSender
	Clock         notification.Clock
	Retry         retry.Policy
}

// HandleNotificationCreated mails every user attached to the notification's location or one of its
// ancestors. Recipients already recorded in alert_deliveries are skipped, so a redelivered event
// only retries the users that failed.
func (h *Handler) HandleNotificationCreated(ctx context.Context, ev NotificationCreated) error {
	mConsumed.Inc()
	log := obs.WithTrace(ctx, h.Log).With(zap.Int64("notification_id", ev.NotificationID))

	n, err := h.Notifications.GetByID(ctx, ev.NotificationID)
	if err != nil {
		mErrors.Inc()
		if errors.Is(err, notification.ErrNotFound) {
			log.Warn("notification vanished; dropping event")
			return nil
		}
		return fmt.Errorf("get notification: %w", err)
	}

	users, err := h.Parents.ParentUsers(ctx, n.LocationID)
	if err != nil {
		mErrors.Inc()
		err = fmt.Errorf("parent users of location %d: %w", n.LocationID, err)
		if errors.Is(err, location.ErrCycle) {
			return retry.Permanent(err)
		}
		return err
	}
	if len(users) == 0 {
		log.Info("no users to alert", zap.Int64("location_id", n.LocationID))
		return nil
	}

	done, err := h.delivered(ctx, n.ID)
	if err != nil {
		mErrors.Inc()
		return err
	}

	subject, body := Compose(n)

	var errs []error
	for _, u := range users {
		if _, ok := done[u.ID]; ok {
			mSkipped.Inc()
			continue
		}
		if err := retry.Do(ctx, func() error { return h.Out.Send(ctx, u.Email, subject, body) }, h.Retry); err != nil {
			mErrors.Inc()
			log.Error("send alert failed", zap.Int64("user_id", u.ID), zap.Bool("permanent", !retry.IsRetryable(err)), zap.Error(err))
			// A rejected mailbox will not recover on redelivery.
			if retry.IsRetryable(err) {
				errs = append(errs, fmt.Errorf("send to user %d: %w", u.ID, err))
			}
			continue
		}
		mSent.Inc()

		d := &notification.Delivery{
			NotificationID: n.ID,
			UserID:         u.ID,
			Channel:        channelEmail,
			SentAt:         h.Clock.Now().UTC(),
			Payload:        body,
		}
		if err := h.Deliveries.Create(ctx, d); err != nil && !errors.Is(err, notification.ErrAlreadyDelivered) {
			mErrors.Inc()
			log.Warn("record delivery failed", zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}

	log.Info("alerts dispatched", zap.Int("recipients", len(users)), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func (h *Handler) delivered(ctx context.Context, notificationID int64) (map[int64]struct{}, error) {
	list, err := h.Deliveries.ListByNotification(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	out := make(map[int64]struct{}, len(list))
	for _, d := range list {
		if d.Channel == channelEmail {
			out[d.UserID] = struct{}{}
		}
	}
	return out, nil
}

// Compose renders the alert mail for n.
func Compose(n *notification.Notification) (subject, body string) {
	where := n.LocationName
	if where == "" {
		where = fmt.Sprintf("location #%d", n.LocationID)
	}
	subject = fmt.Sprintf("Stillbirth notification #%d at %s", n.ID, where)

	var b strings.Builder
	fmt.Fprintf(&b, "A stillbirth was notified at %s on %s", where, n.DateOfNotification.Format(time.DateOnly))
	if n.Time != "" {
		fmt.Fprintf(&b, " %s", n.Time)
	}
	b.WriteString(".\n\n")
	if n.Mother.Age > 0 {
		fmt.Fprintf(&b, "Mother's age: %d\n", n.Mother.Age)
	}
	if n.Mother.PlaceOfDelivery != "" {
		fmt.Fprintf(&b, "Place of delivery: %s\n", n.Mother.PlaceOfDelivery)
	}
	for i, baby := range n.Babies {
		fmt.Fprintf(&b, "Baby %d: %s, %s", i+1, orDash(string(baby.Sex)), orDash(string(baby.Outcome)))
		if baby.BirthWeight > 0 {
			fmt.Fprintf(&b, ", %d g", baby.BirthWeight)
		}
		if baby.GestationWeeks > 0 {
			fmt.Fprintf(&b, ", %d weeks", baby.GestationWeeks)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPlease review the notification in the reporting system.\n")
	return subject, b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
