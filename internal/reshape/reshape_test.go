package reshape

import (
	"fmt"
	"testing"
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

func testConfig() model.PollsConfig {
	return model.PollsConfig{
		KeyField:   "firm",
		DateField:  "end_date",
		DateLayout: "January 2, 2006",
		Renames: map[string]string{
			"Polling firm":           "firm",
			"Last dateof polling[a]": "end_date",
			"CPC":                    "pred_cpc",
			"LPC":                    "pred_lpc",
			"Samplesize[b]":          "sample_size",
			"Marginof error[c]":      "moe",
		},
		NumericFields: []string{"pred_cpc", "pred_lpc", "sample_size", "moe"},
		StripRules: []model.StripRule{
			{Pattern: `\[[a-z0-9]+\]`, Replace: "", Regex: true},
			{Pattern: "±", Replace: ""},
			{Pattern: "%", Replace: ""},
			{Pattern: " pp", Replace: ""},
			{Pattern: "pp", Replace: ""},
			{Pattern: ",", Replace: ""},
		},
		DateStripRules: []model.StripRule{
			{Pattern: `\[[a-z0-9]+\]`, Replace: "", Regex: true},
		},
		Parties: []model.PartyColumn{
			{Column: "pred_lpc", Label: "Libéral", Rank: 1},
			{Column: "pred_cpc", Label: "Conservateur", Rank: 2},
		},
	}
}

func mustReshaper(t *testing.T, cfg model.PollsConfig) *Reshaper {
	t.Helper()
	r, err := NewReshaper(cfg)
	if err != nil {
		t.Fatalf("NewReshaper: %v", err)
	}
	return r
}

func rawRow(index int, firm, date, cpc, lpc string) model.RawRow {
	return model.RawRow{
		Index: index,
		Cells: map[string]string{
			"Polling firm":           firm,
			"Last dateof polling[a]": date,
			"CPC":                    cpc,
			"LPC":                    lpc,
		},
	}
}

func TestReshaper_RenameDropsUnmapped(t *testing.T) {
	r := mustReshaper(t, testConfig())
	rows := []model.RawRow{{
		Index: 0,
		Cells: map[string]string{
			"Polling firm":           "Léger",
			"Last dateof polling[a]": "January 20, 2025",
			"CPC":                    "44%",
			"Unknown column":         "noise",
		},
	}}

	tidy := r.Reshape(rows, nil)

	if len(tidy) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tidy))
	}
	if _, ok := tidy[0].Numeric["Unknown column"]; ok {
		t.Error("unmapped column must be dropped")
	}
	if tidy[0].Firm != "Léger" {
		t.Errorf("firm = %q", tidy[0].Firm)
	}
}

func TestReshaper_NumericCoercion(t *testing.T) {
	r := mustReshaper(t, testConfig())

	tests := []struct {
		raw  string
		want float64
	}{
		{"±2.1 pp", 2.1},
		{"1,234", 1234},
		{"44%", 44},
		{"38", 38},
		{"2.5pp", 2.5},
		{"41[b]", 41},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := r.Number(tt.raw)
			if err != nil {
				t.Fatalf("Number(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Number(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReshaper_UnparseableCellBecomesMissing(t *testing.T) {
	r := mustReshaper(t, testConfig())
	issues := audit.NewCollector()

	rows := []model.RawRow{rawRow(0, "Nanos", "January 10, 2025", "—", "36")}
	tidy := r.Reshape(rows, issues)

	if len(tidy) != 1 {
		t.Fatalf("a bad cell must not drop the row, got %d rows", len(tidy))
	}
	if v := tidy[0].Numeric["pred_cpc"]; v != nil {
		t.Errorf("cell with no digits must be missing, not %v", *v)
	}
	if v := tidy[0].Numeric["pred_lpc"]; v == nil || *v != 36 {
		t.Error("the neighbouring cell must still parse")
	}
	if issues.Report().ByKind[audit.KindNumericCoercion] != 1 {
		t.Error("the failed cell must be recorded")
	}
}

func TestReshaper_FilterEmptyKeyField(t *testing.T) {
	r := mustReshaper(t, testConfig())
	issues := audit.NewCollector()

	rows := []model.RawRow{
		rawRow(0, "Abacus Data", "January 5, 2025", "43", "21"),
		rawRow(1, "   ", "January 6, 2025", "42", "22"),
	}
	tidy := r.Reshape(rows, issues)

	if len(tidy) != 1 {
		t.Fatalf("expected the empty-key row excluded, got %d rows", len(tidy))
	}
	if issues.Report().ByKind[audit.KindStructuralRow] != 1 {
		t.Error("the excluded row must be recorded")
	}
}

func TestReshaper_PositionalExclusionIsExact(t *testing.T) {
	cfg := testConfig()
	cfg.ExcludeRows = []int{1, 235, 236}
	r := mustReshaper(t, cfg)

	var rows []model.RawRow
	for _, i := range []int{0, 1, 2, 235, 236, 237} {
		rows = append(rows, rawRow(i, fmt.Sprintf("Firm %d", i), "January 2, 2025", "40", "30"))
	}

	tidy := r.Reshape(rows, nil)

	want := []string{"Firm 0", "Firm 2", "Firm 237"}
	if len(tidy) != len(want) {
		t.Fatalf("expected exactly indexes {1,235,236} removed, got %d rows", len(tidy))
	}
	for i, row := range tidy {
		if row.Firm != want[i] {
			t.Errorf("row %d: got %q, want %q (exclusion must be positional, not content-based)", i, row.Firm, want[i])
		}
	}
}

func TestReshaper_DateParsedMonthDayYear(t *testing.T) {
	r := mustReshaper(t, testConfig())

	tidy := r.Reshape([]model.RawRow{rawRow(0, "EKOS", "March 4, 2025", "40", "35")}, nil)

	want := model.Date(2025, time.March, 4)
	if tidy[0].Date == nil || !tidy[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v (month-day-year convention, no day/month transposition)", tidy[0].Date, want)
	}
}

func TestReshaper_DateCellKeepsItsComma(t *testing.T) {
	r := mustReshaper(t, testConfig())

	// The comma is a numeric decoration (thousands separator) and a
	// structural part of the date layout. Only the footnote marker may
	// be removed from the date cell.
	row := model.RawRow{
		Index: 0,
		Cells: map[string]string{
			"Polling firm":           "Leger",
			"Last dateof polling[a]": "January 20, 2025[e]",
			"CPC":                    "41",
			"LPC":                    "36",
			"Samplesize[b]":          "1,234",
		},
	}
	tidy := r.Reshape([]model.RawRow{row}, nil)

	want := model.Date(2025, time.January, 20)
	if tidy[0].Date == nil || !tidy[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v (numeric strip rules must not touch the date cell)", tidy[0].Date, want)
	}
	if v := tidy[0].Numeric["sample_size"]; v == nil || *v != 1234 {
		t.Errorf("sample_size = %v, want 1234 (comma still stripped from numeric cells)", v)
	}
}

func TestReshaper_BadDateKeepsRow(t *testing.T) {
	r := mustReshaper(t, testConfig())
	issues := audit.NewCollector()

	tidy := r.Reshape([]model.RawRow{rawRow(0, "Pallas", "4 March 2025", "40", "35")}, issues)

	if len(tidy) != 1 || tidy[0].Date != nil {
		t.Fatal("a bad date must propagate as missing, not drop the row")
	}
	if issues.Report().ByKind[audit.KindDateParse] != 1 {
		t.Error("the bad date must be recorded")
	}
}
