package report

const Unknown = "Unknown"

type Shape int

const (
	// ShapeFlat is a legacy record describing a single baby in its own fields.
	ShapeFlat Shape = iota
	// ShapeNested is one baby out of a record's babies list.
	ShapeNested
)

// Entry is one baby after flattening: record fields with the baby's fields laid over them.
type Entry struct {
	Shape  Shape
	Record *Record

	Sex            Value
	Type           Value
	Outcome        Value
	Place          Value
	Weight         Value
	GestationalAge Value

	// legacy numeric flags, always taken from the record
	Female   Value
	Male     Value
	Facility Value
}

// Flatten turns records into one entry per baby. Records without babies pass through as one entry.
// Entries point at the input records but never modify them.
func Flatten(records []Record) []Entry {
	out := make([]Entry, 0, len(records))
	for i := range records {
		r := &records[i]
		if len(r.Babies) == 0 {
			out = append(out, flatEntry(r))
			continue
		}
		for j := range r.Babies {
			out = append(out, nestedEntry(r, &r.Babies[j]))
		}
	}
	return out
}

func flatEntry(r *Record) Entry {
	return Entry{
		Shape:          ShapeFlat,
		Record:         r,
		Sex:            r.Sex,
		Type:           r.Type,
		Outcome:        r.Outcome,
		Place:          r.Place,
		Weight:         r.Weight,
		GestationalAge: r.GestationalAge,
		Female:         r.Female,
		Male:           r.Male,
		Facility:       r.Facility,
	}
}

func nestedEntry(r *Record, b *Baby) Entry {
	e := flatEntry(r)
	e.Shape = ShapeNested
	e.Sex = b.Sex
	e.Outcome = over(b.Outcome, r.Outcome)
	e.Type = over(b.Outcome, r.Type)
	e.Place = over(b.Place, r.Place)
	e.Weight = first(b.BirthWeight, b.Weight, r.Weight)
	e.GestationalAge = first(b.GestationWeeks, b.GestationalAge, r.GestationalAge)
	return e
}

// over picks the baby's value when it carries one.
func over(baby, record Value) Value {
	if baby.IsSet() {
		return baby
	}
	return record
}
