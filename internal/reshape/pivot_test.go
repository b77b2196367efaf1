package reshape

import (
	"testing"
	"time"

	"github.com/adurocher/mandat/internal/model"
)

// rewiden is the test-only inverse of Pivot: it reconstructs the wide
// numeric cells of a single observation from its long rows.
func rewiden(cfg model.PollsConfig, long []model.LongRow) map[string]float64 {
	byLabel := make(map[string]string, len(cfg.Parties))
	for _, p := range cfg.Parties {
		byLabel[p.Label] = p.Column
	}
	wide := make(map[string]float64, len(long))
	for _, row := range long {
		wide[byLabel[row.Party]] = row.Value
	}
	return wide
}

func TestPivot_WideToLong(t *testing.T) {
	cfg := testConfig()
	r := mustReshaper(t, cfg)

	date := model.Date(2025, time.January, 20)
	cpc, lpc := 35.0, 28.0
	tidy := []model.TidyRow{{
		Firm: "Léger",
		Date: &date,
		Numeric: map[string]*float64{
			"pred_cpc": &cpc,
			"pred_lpc": &lpc,
		},
	}}

	long := r.Pivot(tidy)

	if len(long) != 2 {
		t.Fatalf("expected 2 long rows, got %d", len(long))
	}
	// Configured order: Libéral first (rank 1), Conservateur second.
	if long[0].Party != "Libéral" || long[0].Value != 28 || long[0].Rank != 1 {
		t.Errorf("long[0] = %+v, want (Libéral, 28, rank 1)", long[0])
	}
	if long[1].Party != "Conservateur" || long[1].Value != 35 || long[1].Rank != 2 {
		t.Errorf("long[1] = %+v, want (Conservateur, 35, rank 2)", long[1])
	}
	for i, row := range long {
		if !row.Date.Equal(date) {
			t.Errorf("long[%d].Date = %v, want %v", i, row.Date, date)
		}
	}

	// Round-trip: re-widening reconstructs the original wide cells.
	wide := rewiden(cfg, long)
	if wide["pred_cpc"] != cpc || wide["pred_lpc"] != lpc {
		t.Errorf("re-widened row %v does not match original {pred_cpc: %v, pred_lpc: %v}", wide, cpc, lpc)
	}
}

func TestPivot_SkipsMissingCellsAndDatelessRows(t *testing.T) {
	r := mustReshaper(t, testConfig())

	date := model.Date(2025, time.February, 1)
	lpc := 30.0
	tidy := []model.TidyRow{
		{Firm: "Nanos", Date: &date, Numeric: map[string]*float64{"pred_cpc": nil, "pred_lpc": &lpc}},
		{Firm: "No date", Date: nil, Numeric: map[string]*float64{"pred_lpc": &lpc}},
	}

	long := r.Pivot(tidy)

	if len(long) != 1 {
		t.Fatalf("expected 1 long row, got %d", len(long))
	}
	if long[0].Party != "Libéral" {
		t.Errorf("unexpected row %+v", long[0])
	}
}

func TestPivot_RankOrderIsNotAlphabetical(t *testing.T) {
	cfg := testConfig()
	r := mustReshaper(t, cfg)

	// Alphabetically "Conservateur" < "Libéral"; the configured legend
	// order puts Libéral first. Ranks must come from configuration.
	date := model.Date(2025, time.January, 2)
	v := 10.0
	long := r.Pivot([]model.TidyRow{{
		Firm: "X", Date: &date,
		Numeric: map[string]*float64{"pred_cpc": &v, "pred_lpc": &v},
	}})

	if long[0].Party != "Libéral" {
		t.Errorf("expected configured order, got %q first", long[0].Party)
	}
}
