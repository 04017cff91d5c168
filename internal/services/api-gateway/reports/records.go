package reports

import (
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/report"
)

// ToRecords renders stored notifications in the nested-babies record shape
// that mobile clients and sbreport aggregate.
func ToRecords(list []*notification.Notification) []report.Record {
	out := make([]report.Record, 0, len(list))
	for _, n := range list {
		out = append(out, toRecord(n))
	}
	return out
}

func toRecord(n *notification.Notification) report.Record {
	r := report.Record{
		ID:                 report.V(n.ID),
		DateOfNotification: report.V(n.DateOfNotification.Format(time.DateOnly)),
		Location:           report.Location{ID: report.V(n.LocationID)},
		Babies:             make([]report.Baby, 0, len(n.Babies)),
	}
	if n.Time != "" {
		r.Time = report.V(n.Time)
	}
	if n.LocationName != "" {
		r.Location.Name = report.V(n.LocationName)
	}
	if n.Mother.Age > 0 {
		r.Mother.Age = report.V(n.Mother.Age)
	}
	if n.Mother.PlaceOfDelivery != "" {
		r.Mother.PlaceOfDelivery = report.V(n.Mother.PlaceOfDelivery)
	}
	for _, b := range n.Babies {
		r.Babies = append(r.Babies, toBaby(b))
	}
	return r
}

func toBaby(b notification.Baby) report.Baby {
	var out report.Baby
	if b.Sex != "" {
		out.Sex = report.V(string(b.Sex))
	}
	if b.Outcome != "" {
		out.Outcome = report.V(string(b.Outcome))
	}
	if b.BirthWeight > 0 {
		out.BirthWeight = report.V(b.BirthWeight)
	}
	if b.GestationWeeks > 0 {
		out.GestationWeeks = report.V(b.GestationWeeks)
	}
	if b.Place != "" {
		out.Place = report.V(string(b.Place))
	}
	return out
}
