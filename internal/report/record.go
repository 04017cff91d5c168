package report

import (
	"bytes"
	"encoding/json"
)

// Record is one raw notification as served by /v1/reports/raw or older app builds.
// Newer records carry Babies; legacy ones carry a single baby in the flat fields.
type Record struct {
	ID                 Value    `json:"id,omitzero"`
	DateOfNotification Value    `json:"dateOfNotification,omitzero"`
	Date               Value    `json:"date,omitzero"`
	Time               Value    `json:"time,omitzero"`
	Location           Location `json:"location,omitzero"`
	Facility           Value    `json:"facility,omitzero"`
	HealthFacility     Value    `json:"healthFacility,omitzero"`
	FacilityName       Value    `json:"facilityName,omitzero"`
	Mother             Mother   `json:"mother,omitzero"`
	Babies             []Baby   `json:"babies,omitempty"`

	Female         Value `json:"female,omitzero"`
	Male           Value `json:"male,omitzero"`
	Sex            Value `json:"sex,omitzero"`
	Type           Value `json:"type,omitzero"`
	Outcome        Value `json:"outcome,omitzero"`
	Place          Value `json:"place,omitzero"`
	Weight         Value `json:"weight,omitzero"`
	MotherAge      Value `json:"motherAge,omitzero"`
	GestationalAge Value `json:"gestationalAge,omitzero"`
	DeliveryPlace  Value `json:"deliveryPlace,omitzero"`
}

type Mother struct {
	Age             Value `json:"age,omitzero"`
	PlaceOfDelivery Value `json:"placeOfDelivery,omitzero"`
}

func (m Mother) IsZero() bool { return !m.Age.IsSet() && !m.PlaceOfDelivery.IsSet() }

type Baby struct {
	Sex            Value `json:"sex,omitzero"`
	Outcome        Value `json:"outcome,omitzero"`
	BirthWeight    Value `json:"birthWeight,omitzero"`
	Weight         Value `json:"weight,omitzero"`
	GestationWeeks Value `json:"gestationWeeks,omitzero"`
	GestationalAge Value `json:"gestationalAge,omitzero"`
	Place          Value `json:"place,omitzero"`
}

// Location accepts either {"id":..,"name":..,"facilityName":..} or a bare name string.
type Location struct {
	ID           Value `json:"id,omitzero"`
	Name         Value `json:"name,omitzero"`
	FacilityName Value `json:"facilityName,omitzero"`
}

func (l Location) IsZero() bool {
	return !l.ID.IsSet() && !l.Name.IsSet() && !l.FacilityName.IsSet()
}

func (l *Location) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = Location{}
		return nil
	}
	if b[0] != '{' {
		var name Value
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		if name.IsNumber() {
			*l = Location{ID: name}
			return nil
		}
		*l = Location{Name: name}
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// FacilityLabel resolves the display facility of a record: explicit facility,
// location name, location facility name, healthFacility, facilityName, "Unknown".
func (r *Record) FacilityLabel() string {
	if v := first(r.Facility, r.Location.Name, r.Location.FacilityName, r.HealthFacility, r.FacilityName); v.IsSet() {
		return v.String()
	}
	return Unknown
}
