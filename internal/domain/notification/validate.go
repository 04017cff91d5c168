package notification

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalid = errors.New("invalid notification")

func (s Sex) Valid() bool {
	switch s {
	case SexFemale, SexMale, SexIndeterminate:
		return true
	}
	return false
}

func (o Outcome) Valid() bool { return o == OutcomeFresh || o == OutcomeMacerated }

// Valid accepts the empty place; the mother's place of delivery is used instead.
func (p Place) Valid() bool {
	switch p {
	case "", PlaceFacility, PlaceHome, PlaceTransit:
		return true
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

// calendarDay drops the clock and the zone of t, keeping the date as seen in t's location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks a notification before it is stored. The notification date may not be
// later than the calendar day of now, taken in now's location.
func (n *Notification) Validate(now time.Time) error {
	if n.LocationID <= 0 {
		return invalid("location is required")
	}
	if n.DateOfNotification.IsZero() {
		return invalid("date of notification is required")
	}
	if calendarDay(n.DateOfNotification).After(calendarDay(now)) {
		return invalid("date of notification is in the future")
	}
	if n.Time != "" {
		if _, err := time.Parse("15:04", n.Time); err != nil {
			return invalid("time must be HH:MM")
		}
	}
	if n.Mother.Age < 0 || n.Mother.Age > 80 {
		return invalid("mother age %d out of range", n.Mother.Age)
	}
	if n.Mother.Parity < 0 {
		return invalid("parity must not be negative")
	}
	if len(n.Babies) == 0 {
		return ErrNoBabies
	}
	for i, b := range n.Babies {
		switch {
		case !b.Sex.Valid():
			return invalid("baby %d: unknown sex %q", i, b.Sex)
		case !b.Outcome.Valid():
			return invalid("baby %d: unknown outcome %q", i, b.Outcome)
		case !b.Place.Valid():
			return invalid("baby %d: unknown place %q", i, b.Place)
		case b.BirthWeight < 0:
			return invalid("baby %d: birth weight must not be negative", i)
		case b.GestationWeeks < 0 || b.GestationWeeks > 45:
			return invalid("baby %d: gestation %d weeks out of range", i, b.GestationWeeks)
		}
	}
	return nil
}
