package extract

import (
	"fmt"
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

const datePrefixLen = 10 // YYYY-MM-DD

// Correction field names as they appear in the override table.
const (
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldBirthDate = "birth_date"
)

// DateNormalizer converts heterogeneous source date strings into
// calendar dates and applies the manual override table for entities
// known a priori to carry defective values.
type DateNormalizer struct {
	// overrides: entity name -> field -> replacement date.
	overrides map[string]map[string]time.Time
}

// NewDateNormalizer builds a normalizer from the configured correction
// table. A correction whose own date fails to parse is rejected up
// front: the override table is versioned configuration and must be
// well-formed before a run starts.
func NewDateNormalizer(corrections []model.Correction) (*DateNormalizer, error) {
	overrides := make(map[string]map[string]time.Time)
	for _, c := range corrections {
		d, err := time.ParseInLocation("2006-01-02", c.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("correction for %q/%s: bad date %q: %w", c.Name, c.Field, c.Date, err)
		}
		if overrides[c.Name] == nil {
			overrides[c.Name] = make(map[string]time.Time)
		}
		overrides[c.Name][c.Field] = d
	}
	return &DateNormalizer{overrides: overrides}, nil
}

// Parse canonicalizes one raw date string: the leading 10 characters
// are taken as YYYY-MM-DD and parsed as a UTC calendar date, so a
// timestamp suffix is dropped and a bare 10-character date passes
// through unchanged. Strings shorter than 10 characters or not
// matching the pattern fail with an error naming the offending value.
func (n *DateNormalizer) Parse(raw string) (time.Time, error) {
	if len(raw) < datePrefixLen {
		return time.Time{}, fmt.Errorf("date %q shorter than %d characters", raw, datePrefixLen)
	}
	prefix := raw[:datePrefixLen]
	d, err := time.ParseInLocation("2006-01-02", prefix, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date prefix %q does not match YYYY-MM-DD: %w", prefix, err)
	}
	return d, nil
}

// parseField parses one field of an entity, recording a date-parse
// issue attributable to that entity on failure. An empty raw string is
// an absent value, not an error.
func (n *DateNormalizer) parseField(name, field, raw string, issues *audit.Collector) *time.Time {
	if raw == "" {
		return nil
	}
	d, err := n.Parse(raw)
	if err != nil {
		if issues != nil {
			issues.Add(audit.KindDateParse, name, field, "%v", err)
		}
		return nil
	}
	return &d
}

// Normalize converts the entity's raw interval into calendar dates and
// applies any overrides keyed to the entity. Overrides are applied
// after parsing, replace the parsed value exactly, and may be
// future-dated (a known, announced-but-not-yet-occurred transition);
// entities absent from the table are never modified. Applying the
// table twice yields the same result.
func (n *DateNormalizer) Normalize(name string, raw model.RawInterval, issues *audit.Collector) model.Interval {
	var iv model.Interval
	if raw.Found {
		iv.Start = n.parseField(name, FieldStartDate, raw.Start, issues)
		iv.End = n.parseField(name, FieldEndDate, raw.End, issues)
	}

	if fields, ok := n.overrides[name]; ok {
		if d, ok := fields[FieldStartDate]; ok {
			iv.Start = &d
		}
		if d, ok := fields[FieldEndDate]; ok {
			iv.End = &d
		}
	}
	return iv
}

// Birth parses an entity's birth date, applying a birth_date override
// when the correction table carries one.
func (n *DateNormalizer) Birth(name, raw string, issues *audit.Collector) *time.Time {
	birth := n.parseField(name, FieldBirthDate, raw, issues)
	if fields, ok := n.overrides[name]; ok {
		if d, ok := fields[FieldBirthDate]; ok {
			birth = &d
		}
	}
	return birth
}
