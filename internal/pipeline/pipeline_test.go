package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Tenure.RoleLabel = "Premier ministre du Canada"
	cfg.Concurrency.Workers = 3

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func testEntities() []model.Entity {
	return []model.Entity{
		{
			Name:      "Kim Campbell",
			BirthDate: "1947-03-10T00:00:00Z",
			Party:     "Parti progressiste-conservateur",
			Roles: []model.RoleRecord{
				{Label: "Ministre de la Justice", Start: "1990-02-23T00:00:00Z", End: "1993-01-03T00:00:00Z"},
				{Label: "Premier ministre du Canada", Start: "1993-06-25T00:00:00Z", End: "1993-11-04T00:00:00Z"},
			},
		},
		{
			Name:      "Jean Chrétien",
			BirthDate: "1934-01-11T00:00:00Z",
			Party:     "Parti libéral du Canada",
			Roles: []model.RoleRecord{
				{Label: "Premier ministre du Canada", Start: "1993-11-04T00:00:00Z", End: "2003-12-12T00:00:00Z"},
			},
		},
		{
			Name:      "Justin Trudeau",
			BirthDate: "1971-12-25T00:00:00Z",
			Party:     "Parti libéral du Canada",
			Roles: []model.RoleRecord{
				// End null in source: corrected by the override table.
				{Label: "Premier ministre du Canada", Start: "2015-11-04T00:00:00Z"},
			},
		},
		{
			Name:      "Thomas Mulcair",
			BirthDate: "1954-10-24T00:00:00Z",
			Roles: []model.RoleRecord{
				{Label: "Chef de l'opposition officielle", Start: "2012-03-24T00:00:00Z", End: "2015-11-03T00:00:00Z"},
			},
		},
	}
}

func TestDeriveRows_SourceOrderAndMetrics(t *testing.T) {
	p := testPipeline(t)
	issues := audit.NewCollector()

	rows := p.DeriveRows(context.Background(), testEntities(), issues)

	if len(rows) != 4 {
		t.Fatalf("no entity may be dropped: expected 4 rows, got %d", len(rows))
	}

	wantOrder := []string{"Kim Campbell", "Jean Chrétien", "Justin Trudeau", "Thomas Mulcair"}
	for i, row := range rows {
		if row.Name != wantOrder[i] {
			t.Fatalf("row %d: got %q, want %q (output order must be source order)", i, row.Name, wantOrder[i])
		}
	}

	campbell := rows[0]
	if campbell.DurationYears == nil {
		t.Fatal("Campbell duration must be defined")
	}
	if math.Abs(*campbell.DurationYears-132.0/365.25) > 1e-9 {
		t.Errorf("Campbell duration = %v, want %v", *campbell.DurationYears, 132.0/365.25)
	}

	trudeau := rows[2]
	if trudeau.EndDate == nil || !trudeau.EndDate.Equal(model.Date(2025, time.March, 14)) {
		t.Errorf("override table must supply Trudeau's end date, got %v", trudeau.EndDate)
	}
	if trudeau.DurationYears == nil {
		t.Error("corrected interval must yield a defined duration")
	}

	mulcair := rows[3]
	if mulcair.StartDate != nil || mulcair.DurationYears != nil {
		t.Error("an extraction miss must propagate as missing values, not invented dates")
	}
}

func TestDeriveRows_AuditRecordsMisses(t *testing.T) {
	p := testPipeline(t)
	issues := audit.NewCollector()

	p.DeriveRows(context.Background(), testEntities(), issues)

	report := issues.Report()
	if report.ByKind[audit.KindExtractionMiss] != 1 {
		t.Errorf("expected 1 extraction miss (Mulcair), got %d", report.ByKind[audit.KindExtractionMiss])
	}
}

func TestRenderer_WriteTenureCSV(t *testing.T) {
	p := testPipeline(t)
	rows := p.DeriveRows(context.Background(), testEntities(), audit.NewCollector())

	path := filepath.Join(t.TempDir(), "tenure.csv")
	if err := NewRenderer(false).WriteTenureCSV(path, rows); err != nil {
		t.Fatalf("WriteTenureCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "name,birth_date,party") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// The extraction miss surfaces as NA, never as zero or a date.
	if !strings.Contains(lines[4], "NA") {
		t.Errorf("expected NA markers in the unresolved row: %s", lines[4])
	}
}

func TestRenderer_PollsTruncationNoteFollowsTable(t *testing.T) {
	rows := []model.LongRow{
		{Date: model.Date(2025, time.January, 10), Party: "Libéral", Rank: 1, Value: 36},
		{Date: model.Date(2025, time.January, 10), Party: "Conservateur", Rank: 2, Value: 44},
		{Date: model.Date(2025, time.January, 17), Party: "Libéral", Rank: 1, Value: 37},
	}

	var b strings.Builder
	NewRenderer(false).RenderPolls(&b, rows, 2)

	out := strings.TrimRight(b.String(), "\n")
	lines := strings.Split(out, "\n")
	if last := lines[len(lines)-1]; last != "... 1 more rows" {
		t.Errorf("truncation note must come after the table, last line = %q", last)
	}
	if strings.Contains(out, "2025-01-17") {
		t.Error("rows past the limit must not be rendered")
	}
}

func TestRenderer_RenderAuditListsKinds(t *testing.T) {
	c := audit.NewCollector()
	c.Add(audit.KindDateParse, "X", "start_date", "bad")

	var b strings.Builder
	NewRenderer(false).RenderAudit(&b, c.Report())

	if !strings.Contains(b.String(), "date_parse") {
		t.Errorf("audit output missing kind breakdown: %q", b.String())
	}
}
