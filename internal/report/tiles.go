package report

import "strings"

type SexTiles struct {
	Female int `json:"female" yaml:"female"`
	Male   int `json:"male" yaml:"male"`
}

type TypeTiles struct {
	Fresh     int `json:"fresh" yaml:"fresh"`
	Macerated int `json:"macerated" yaml:"macerated"`
}

type PlaceTiles struct {
	Home     int `json:"home" yaml:"home"`
	Facility int `json:"facility" yaml:"facility"`
}

// TileSummary holds dashboard counters. The sub-buckets are counted independently
// and need not add up to Total.
type TileSummary struct {
	Total int        `json:"total" yaml:"total"`
	Sex   SexTiles   `json:"sex" yaml:"sex"`
	Type  TypeTiles  `json:"type" yaml:"type"`
	Place PlaceTiles `json:"place" yaml:"place"`
}

// ProcessRawData counts flattened entries into tiles.
//
// Sex tiles read only the legacy numeric female/male fields, not the baby's sex string,
// so nested records without those fields do not reach the sex tiles.
func ProcessRawData(records []Record) TileSummary {
	entries := Flatten(records)

	var s TileSummary
	s.Total = len(entries)
	for i := range entries {
		e := &entries[i]
		if e.Female.Truthy() && e.Female.Positive() {
			s.Sex.Female++
		}
		if e.Male.Truthy() && e.Male.Positive() {
			s.Sex.Male++
		}
		if isOutcome(e, "fresh") {
			s.Type.Fresh++
		}
		if isOutcome(e, "macerated") {
			s.Type.Macerated++
		}
		if e.Place.String() == "home" {
			s.Place.Home++
		}
		if strings.Contains(e.Place.Lower(), "facility") || e.Facility.Truthy() || e.Place.String() == "facility" {
			s.Place.Facility++
		}
	}
	return s
}

func isOutcome(e *Entry, word string) bool {
	return strings.Contains(e.Type.Lower(), word) ||
		strings.Contains(e.Outcome.Lower(), word) ||
		e.Type.String() == word
}
