package extract

import (
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

// daysPerYear averages leap years for calendar accuracy.
const daysPerYear = 365.25

// MetricDeriver computes duration-in-role and age-at-start from a
// normalized interval and birth date. Pure: no state beyond the
// constant year length.
type MetricDeriver struct{}

// NewMetricDeriver creates a metric deriver.
func NewMetricDeriver() *MetricDeriver {
	return &MetricDeriver{}
}

// years returns the exact floating (to - from in days) / 365.25.
// No rounding here; rounding belongs to presentation.
func years(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / daysPerYear
}

// Derive builds the flat output row for one entity. A missing end date
// leaves DurationYears nil (undefined, never zero or elapsed-to-date);
// a missing birth or start date leaves AgeAtStartYears nil. A negative
// metric indicates upstream date corruption: it is kept in the row,
// flagged in the audit, never clamped.
func (m *MetricDeriver) Derive(entity model.Entity, birth *time.Time, iv model.Interval, issues *audit.Collector) model.DerivedRow {
	row := model.DerivedRow{
		Name:        entity.Name,
		BirthDate:   birth,
		Party:       entity.Party,
		Occupation:  entity.Occupation,
		BirthRegion: entity.BirthRegion,
		StartDate:   iv.Start,
		EndDate:     iv.End,
	}

	if iv.Start != nil && iv.End != nil {
		d := years(*iv.Start, *iv.End)
		row.DurationYears = &d
		if d < 0 && issues != nil {
			issues.Add(audit.KindMetricViolation, entity.Name, "duration_years",
				"negative duration %.3f: end %s precedes start %s",
				d, iv.End.Format("2006-01-02"), iv.Start.Format("2006-01-02"))
		}
	}

	if birth != nil && iv.Start != nil {
		a := years(*birth, *iv.Start)
		row.AgeAtStartYears = &a
		if a < 0 && issues != nil {
			issues.Add(audit.KindMetricViolation, entity.Name, "age_at_start_years",
				"negative age %.3f: start %s precedes birth %s",
				a, iv.Start.Format("2006-01-02"), birth.Format("2006-01-02"))
		}
	}

	return row
}

// MeanDuration averages the defined durations of rows. Rows with a nil
// duration are excluded from the mean, not treated as zero. Returns
// false when no row has a defined duration.
func MeanDuration(rows []model.DerivedRow) (float64, bool) {
	var sum float64
	var n int
	for _, r := range rows {
		if r.DurationYears != nil {
			sum += *r.DurationYears
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
