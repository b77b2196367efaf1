// Package audit collects per-record data-quality findings so a run can
// report what it could not resolve instead of silently emitting an
// incomplete table. Nothing here is fatal: every issue is local to one
// entity, row or cell, and the batch always continues.
package audit

import (
	"fmt"
	"sort"
	"sync"
)

// Kind classifies a data-quality issue.
type Kind string

const (
	// KindExtractionMiss: no role record matched the target label.
	KindExtractionMiss Kind = "extraction_miss"
	// KindDateParse: a source date string did not conform to the
	// expected prefix/format.
	KindDateParse Kind = "date_parse"
	// KindNumericCoercion: a decorated numeric cell failed to parse
	// after decoration stripping.
	KindNumericCoercion Kind = "numeric_coercion"
	// KindStructuralRow: a table row failed required-field presence
	// or was positionally excluded as a known artifact.
	KindStructuralRow Kind = "structural_row"
	// KindMetricViolation: a derived duration or age came out
	// negative, indicating upstream date corruption.
	KindMetricViolation Kind = "metric_violation"
)

// Issue identifies one affected record: the subject (entity name or
// row position), the field involved, and what went wrong.
type Issue struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail"`
}

func (i Issue) String() string {
	if i.Field != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", i.Kind, i.Subject, i.Field, i.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Subject, i.Detail)
}

// Collector accumulates issues across a run. Safe for concurrent use
// by the per-entity workers.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records one issue.
func (c *Collector) Add(kind Kind, subject, field, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, Issue{
		Kind:    kind,
		Subject: subject,
		Field:   field,
		Detail:  fmt.Sprintf(format, args...),
	})
}

// Issues returns a copy of all recorded issues.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// Len returns the number of recorded issues.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// Merge combines reports from independent sub-pipelines into one
// aggregate view.
func Merge(reports ...Report) Report {
	merged := Report{ByKind: make(map[Kind]int)}
	for _, r := range reports {
		merged.Total += r.Total
		for kind, n := range r.ByKind {
			merged.ByKind[kind] += n
		}
		merged.Issues = append(merged.Issues, r.Issues...)
	}
	return merged
}

// Report is the aggregate view rendered at the end of a run.
type Report struct {
	Total  int          `json:"total"`
	ByKind map[Kind]int `json:"by_kind"`
	Issues []Issue      `json:"issues"`
}

// Report builds the aggregate report, issues grouped by kind and
// ordered by subject within each kind for stable output.
func (c *Collector) Report() Report {
	issues := c.Issues()
	byKind := make(map[Kind]int)
	for _, i := range issues {
		byKind[i.Kind]++
	}
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Kind != issues[b].Kind {
			return issues[a].Kind < issues[b].Kind
		}
		return issues[a].Subject < issues[b].Subject
	})
	return Report{
		Total:  len(issues),
		ByKind: byKind,
		Issues: issues,
	}
}
