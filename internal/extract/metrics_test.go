package extract

import (
	"math"
	"testing"
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := model.Date(y, m, d)
	return &t
}

func TestMetricDeriver_Duration(t *testing.T) {
	m := NewMetricDeriver()
	entity := model.Entity{Name: "Kim Campbell"}

	// 1993-06-25 .. 1993-11-04 is 132 days.
	row := m.Derive(entity, datePtr(1947, time.March, 10), model.Interval{
		Start: datePtr(1993, time.June, 25),
		End:   datePtr(1993, time.November, 4),
	}, nil)

	if row.DurationYears == nil {
		t.Fatal("expected a defined duration")
	}
	want := 132.0 / 365.25
	if math.Abs(*row.DurationYears-want) > 1e-9 {
		t.Errorf("duration = %v, want %v", *row.DurationYears, want)
	}
	if math.Abs(*row.DurationYears-0.361) > 0.001 {
		t.Errorf("duration = %v, want ≈ 0.361", *row.DurationYears)
	}
}

func TestMetricDeriver_OpenIntervalDurationUndefined(t *testing.T) {
	m := NewMetricDeriver()
	entity := model.Entity{Name: "Mark Carney"}

	row := m.Derive(entity, datePtr(1965, time.March, 16), model.Interval{
		Start: datePtr(2025, time.March, 14),
		End:   nil,
	}, nil)

	if row.DurationYears != nil {
		t.Errorf("open interval must yield an undefined duration, got %v", *row.DurationYears)
	}
	if row.AgeAtStartYears == nil {
		t.Fatal("age at start is computable without an end date")
	}
	if *row.AgeAtStartYears <= 0 {
		t.Errorf("expected positive age, got %v", *row.AgeAtStartYears)
	}
}

func TestMetricDeriver_AgeAtStart(t *testing.T) {
	m := NewMetricDeriver()
	entity := model.Entity{Name: "Joe Clark"}

	// Born 1939-06-05, in office 1979-06-04: one day short of 40.
	row := m.Derive(entity, datePtr(1939, time.June, 5), model.Interval{
		Start: datePtr(1979, time.June, 4),
		End:   datePtr(1980, time.March, 3),
	}, nil)

	if row.AgeAtStartYears == nil {
		t.Fatal("expected a defined age")
	}
	days := model.Date(1979, time.June, 4).Sub(model.Date(1939, time.June, 5)).Hours() / 24
	want := days / 365.25
	if math.Abs(*row.AgeAtStartYears-want) > 1e-9 {
		t.Errorf("age = %v, want %v", *row.AgeAtStartYears, want)
	}
}

func TestMetricDeriver_MissingDatesPropagate(t *testing.T) {
	m := NewMetricDeriver()
	entity := model.Entity{Name: "Unknown"}

	row := m.Derive(entity, nil, model.Interval{}, nil)

	if row.DurationYears != nil || row.AgeAtStartYears != nil {
		t.Error("unresolved interval must yield undefined metrics, not zero")
	}
}

func TestMetricDeriver_NegativeMetricFlaggedNotClamped(t *testing.T) {
	m := NewMetricDeriver()
	issues := audit.NewCollector()
	entity := model.Entity{Name: "Corrupt Entry"}

	row := m.Derive(entity, datePtr(1950, time.January, 1), model.Interval{
		Start: datePtr(1990, time.May, 2),
		End:   datePtr(1990, time.May, 1),
	}, issues)

	if row.DurationYears == nil || *row.DurationYears >= 0 {
		t.Fatal("negative duration must be kept, not clamped or dropped")
	}
	if issues.Report().ByKind[audit.KindMetricViolation] != 1 {
		t.Error("negative duration must be flagged as a metric violation")
	}
}

func TestMeanDuration_ExcludesUndefined(t *testing.T) {
	two := 2.0
	four := 4.0
	rows := []model.DerivedRow{
		{Name: "A", DurationYears: &two},
		{Name: "B", DurationYears: nil}, // ongoing: excluded, not zero
		{Name: "C", DurationYears: &four},
	}

	mean, ok := MeanDuration(rows)
	if !ok {
		t.Fatal("expected a defined mean")
	}
	if math.Abs(mean-3.0) > 1e-9 {
		t.Errorf("mean = %v, want 3.0 (undefined rows excluded)", mean)
	}

	if _, ok := MeanDuration([]model.DerivedRow{{Name: "only open"}}); ok {
		t.Error("all-undefined input must yield no mean")
	}
}
