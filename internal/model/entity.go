package model

import "time"

// RoleRecord is one held office as it appears in the nested source:
// a free-text label and raw timestamp strings. End is empty when the
// role was still active (or unknown) at data-collection time.
type RoleRecord struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Entity is one person record from the nested dataset. Attribute
// fields are carried through the pipeline unchanged.
type Entity struct {
	Name        string       `json:"name"`
	BirthDate   string       `json:"birth_date"`
	Party       string       `json:"party,omitempty"`
	Occupation  string       `json:"occupation,omitempty"`
	BirthRegion string       `json:"birth_region,omitempty"`
	Roles       []RoleRecord `json:"positions"`
}

// RawInterval holds the raw timestamp strings of the role record that
// matched the target label. Found is false when no record matched;
// the entity is still carried downstream with an absent interval.
type RawInterval struct {
	Start string
	End   string
	Found bool
}

// Interval is a normalized start/end pair. End is nil for an ongoing
// or unknown termination. Start <= End whenever both are present.
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// DerivedRow is the flat per-entity output of the tenure pipeline.
// DurationYears is nil when the end date is missing; AgeAtStartYears
// is nil when the birth or start date could not be resolved. Nil
// metrics are excluded from aggregates, never treated as zero.
type DerivedRow struct {
	Name            string     `json:"name"`
	BirthDate       *time.Time `json:"birth_date"`
	Party           string     `json:"party,omitempty"`
	Occupation      string     `json:"occupation,omitempty"`
	BirthRegion     string     `json:"birth_region,omitempty"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	DurationYears   *float64   `json:"duration_years"`
	AgeAtStartYears *float64   `json:"age_at_start_years"`
}

// Date returns t truncated to a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
