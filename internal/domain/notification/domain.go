package notification

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("notification not found")
	ErrNoBabies         = errors.New("notification must carry at least one baby")
	ErrAlreadyDelivered = errors.New("alert already delivered")
)

type Sex string

const (
	SexFemale        Sex = "Female"
	SexMale          Sex = "Male"
	SexIndeterminate Sex = "Indeterminate"
)

type Outcome string

const (
	OutcomeFresh     Outcome = "Fresh still-birth"
	OutcomeMacerated Outcome = "Macerated still-birth"
)

type Place string

const (
	PlaceFacility Place = "facility"
	PlaceHome     Place = "home"
	PlaceTransit  Place = "transit"
)

type Mother struct {
	Age             int    `json:"age"`
	Parity          int    `json:"parity"`
	PlaceOfDelivery string `json:"place_of_delivery"`
}

type Baby struct {
	ID             int64   `json:"id"`
	Sex            Sex     `json:"sex"`
	Outcome        Outcome `json:"outcome"`
	BirthWeight    int     `json:"birth_weight"` // grams
	GestationWeeks int     `json:"gestation_weeks"`
	Place          Place   `json:"place"`
}

// Notification is a facility's report of a stillbirth event: one mother, one or more babies.
type Notification struct {
	ID                 int64     `json:"id"`
	LocationID         int64     `json:"location_id"`
	LocationName       string    `json:"location_name,omitempty"`
	ReporterID         int64     `json:"reporter_id"`
	DateOfNotification time.Time `json:"date_of_notification"`
	Time               string    `json:"time"`
	Mother             Mother    `json:"mother"`
	Babies             []Baby    `json:"babies"`
	CreatedAt          time.Time `json:"created_at"`
}

// Delivery records one alert sent about a notification.
type Delivery struct {
	ID             int64     `json:"id"`
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Channel        string    `json:"channel"`
	SentAt         time.Time `json:"sent_at"`
	Payload        string    `json:"payload"`
}

// Filter selects notifications by location set and an inclusive date range.
type Filter struct {
	LocationIDs []int64
	From        time.Time
	To          time.Time
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Clock interface {
	Now() time.Time
}
