// Package extract implements the entity-side transformation stages:
// locating the office-holding interval in each entity's role history,
// normalizing heterogeneous date strings, applying the manual
// correction table, and deriving temporal metrics.
package extract

import (
	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

// RoleExtractor scans an entity's ordered role records for the target
// label and yields the matching raw interval.
type RoleExtractor struct {
	label string
}

// NewRoleExtractor creates an extractor for the given target label.
// Matching is exact on the label text.
func NewRoleExtractor(label string) *RoleExtractor {
	return &RoleExtractor{label: label}
}

// Label returns the target role label.
func (e *RoleExtractor) Label() string {
	return e.label
}

// Extract walks the entity's role records in source order, keeping an
// accumulator of the current match. When several records carry the
// target label the last one in source order wins; this is a
// last-write-wins rule, not most-recent-by-date. Zero matches yield
// an absent interval and an extraction-miss audit entry; the entity
// is never dropped.
func (e *RoleExtractor) Extract(entity model.Entity, issues *audit.Collector) model.RawInterval {
	var match model.RawInterval
	for _, role := range entity.Roles {
		if role.Label == e.label {
			match = model.RawInterval{
				Start: role.Start,
				End:   role.End,
				Found: true,
			}
		}
	}
	if !match.Found && issues != nil {
		issues.Add(audit.KindExtractionMiss, entity.Name, "",
			"no role record matched label %q among %d records", e.label, len(entity.Roles))
	}
	return match
}
