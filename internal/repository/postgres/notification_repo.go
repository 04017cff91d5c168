package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
)

var _ notification.Repo = (*NotificationRepoImpl)(nil)

type NotificationRepoImpl struct {
	db *DB
	tx Transactor
}

func NewNotificationRepo(db *DB, log *zap.Logger) *NotificationRepoImpl {
	return &NotificationRepoImpl{db: db, tx: NewTransactor(db, log)}
}

const (
	qNotifInsert = `
INSERT INTO notifications (location_id, reporter_id, date_of_notification, time, mother_age, mother_parity, place_of_delivery)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at;`

	qBabyInsert = `
INSERT INTO babies (notification_id, sex, outcome, birth_weight, gestation_weeks, place)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`

	notifSelect = `
SELECT n.id, n.location_id, l.name, n.reporter_id, n.date_of_notification, n.time,
       n.mother_age, n.mother_parity, n.place_of_delivery, n.created_at
FROM notifications n
JOIN locations l ON l.id = n.location_id`

	qNotifByID = notifSelect + `
WHERE n.id = $1;`

	qNotifList = notifSelect + `
WHERE n.location_id = ANY($1)
  AND ($2::date IS NULL OR n.date_of_notification >= $2::date)
  AND ($3::date IS NULL OR n.date_of_notification <= $3::date)
ORDER BY n.date_of_notification, n.id;`

	qBabiesByNotifications = `
SELECT id, notification_id, sex, outcome, birth_weight, gestation_weeks, place
FROM babies
WHERE notification_id = ANY($1)
ORDER BY notification_id, id;`
)

// Create stores the notification and its babies atomically. It joins an outer transaction if ctx carries one.
func (r *NotificationRepoImpl) Create(ctx context.Context, n *notification.Notification) error {
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		ctx, cancel := r.db.withTimeout(ctx)
		defer cancel()

		eq := r.db.execQueryer(ctx)
		if err := eq.QueryRow(ctx, qNotifInsert,
			n.LocationID,
			n.ReporterID,
			n.DateOfNotification,
			n.Time,
			n.Mother.Age,
			n.Mother.Parity,
			n.Mother.PlaceOfDelivery,
		).Scan(&n.ID, &n.CreatedAt); err != nil {
			return fmt.Errorf("insert notification: %w", mapErr(err))
		}

		for i := range n.Babies {
			b := &n.Babies[i]
			if err := eq.QueryRow(ctx, qBabyInsert,
				n.ID, string(b.Sex), string(b.Outcome), b.BirthWeight, b.GestationWeeks, string(b.Place),
			).Scan(&b.ID); err != nil {
				return fmt.Errorf("insert baby %d: %w", i, mapErr(err))
			}
		}
		return nil
	})
}

func (r *NotificationRepoImpl) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	rows, err := eq.Query(ctx, qNotifByID, id)
	if err != nil {
		return nil, fmt.Errorf("query notification: %w", err)
	}
	list, err := scanNotifications(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("notification %d: %w", id, notification.ErrNotFound)
	}
	if err := r.attachBabies(ctx, eq, list); err != nil {
		return nil, err
	}
	return list[0], nil
}

func (r *NotificationRepoImpl) List(ctx context.Context, f notification.Filter) ([]*notification.Notification, error) {
	if len(f.LocationIDs) == 0 {
		return []*notification.Notification{}, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	rows, err := eq.Query(ctx, qNotifList, f.LocationIDs, nullTime(f.From), nullTime(f.To))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	list, err := scanNotifications(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachBabies(ctx, eq, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *NotificationRepoImpl) attachBabies(ctx context.Context, eq execQueryer, list []*notification.Notification) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	byID := make(map[int64]*notification.Notification, len(list))
	for i, n := range list {
		ids[i] = n.ID
		byID[n.ID] = n
		n.Babies = make([]notification.Baby, 0, 1)
	}

	rows, err := eq.Query(ctx, qBabiesByNotifications, ids)
	if err != nil {
		return fmt.Errorf("query babies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b notification.Baby
		var notifID int64
		var sex, outcome, place string
		if err := rows.Scan(&b.ID, &notifID, &sex, &outcome, &b.BirthWeight, &b.GestationWeeks, &place); err != nil {
			return fmt.Errorf("scan baby: %w", err)
		}
		b.Sex = notification.Sex(sex)
		b.Outcome = notification.Outcome(outcome)
		b.Place = notification.Place(place)
		if n, ok := byID[notifID]; ok {
			n.Babies = append(n.Babies, b)
		}
	}
	return rows.Err()
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanNotifications(rows rowsScanner) ([]*notification.Notification, error) {
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.LocationID, &n.LocationName, &n.ReporterID, &n.DateOfNotification, &n.Time,
			&n.Mother.Age, &n.Mother.Parity, &n.Mother.PlaceOfDelivery, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ notification.DeliveryRepo = (*DeliveryRepo)(nil)

type DeliveryRepo struct{ db *DB }

func NewDeliveryRepo(db *DB) *DeliveryRepo { return &DeliveryRepo{db: db} }

const (
	qDeliveryInsert = `
INSERT INTO alert_deliveries (notification_id, user_id, channel, sent_at, payload)
VALUES ($1, $2, $3, COALESCE($4, now()), $5)
RETURNING id, sent_at;`

	qDeliveryByNotification = `
SELECT id, notification_id, user_id, channel, sent_at, payload
FROM alert_deliveries
WHERE notification_id = $1
ORDER BY id;`
)

func (r *DeliveryRepo) Create(ctx context.Context, d *notification.Delivery) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.execQueryer(ctx).QueryRow(ctx, qDeliveryInsert,
		d.NotificationID, d.UserID, d.Channel, nullTime(d.SentAt), d.Payload,
	).Scan(&d.ID, &d.SentAt); err != nil {
		err = mapErr(err)
		if errors.Is(err, ErrConflict) {
			return notification.ErrAlreadyDelivered
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) ListByNotification(ctx context.Context, notificationID int64) ([]*notification.Delivery, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, qDeliveryByNotification, notificationID)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Delivery, 0)
	for rows.Next() {
		var d notification.Delivery
		if err := rows.Scan(&d.ID, &d.NotificationID, &d.UserID, &d.Channel, &d.SentAt, &d.Payload); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
