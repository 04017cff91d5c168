package report

// PreviewRow is one baby as shown in the report table and the spreadsheet export.
type PreviewRow struct {
	Sex            string `json:"sex" yaml:"sex"`
	Type           string `json:"type" yaml:"type"`
	Facility       string `json:"facility" yaml:"facility"`
	Date           string `json:"date" yaml:"date"`
	Time           string `json:"time" yaml:"time"`
	Weight         string `json:"weight" yaml:"weight"`
	MotherAge      string `json:"motherAge" yaml:"motherAge"`
	GestationalAge string `json:"gestationalAge" yaml:"gestationalAge"`
	DeliveryPlace  string `json:"deliveryPlace" yaml:"deliveryPlace"`
}

func PreparePreviewData(records []Record) []PreviewRow {
	entries := Flatten(records)
	out := make([]PreviewRow, 0, len(entries))
	for i := range entries {
		out = append(out, previewRow(&entries[i]))
	}
	return out
}

func previewRow(e *Entry) PreviewRow {
	r := e.Record
	return PreviewRow{
		Sex:            previewSex(e),
		Type:           orUnknown(first(e.Outcome, r.Outcome, r.Type)),
		Facility:       r.FacilityLabel(),
		Date:           first(r.DateOfNotification, r.Date).String(),
		Time:           r.Time.String(),
		Weight:         e.Weight.String(),
		MotherAge:      first(r.Mother.Age, r.MotherAge).String(),
		GestationalAge: e.GestationalAge.String(),
		DeliveryPlace:  first(r.Mother.PlaceOfDelivery, r.DeliveryPlace).String(),
	}
}

func previewSex(e *Entry) string {
	if v := first(e.Sex); v.IsSet() {
		return v.String()
	}
	if e.Shape == ShapeNested {
		return Unknown
	}
	switch {
	case e.Female.Truthy():
		return "Female"
	case e.Male.Truthy():
		return "Male"
	}
	return Unknown
}

func orUnknown(v Value) string {
	if v.IsSet() {
		return v.String()
	}
	return Unknown
}
