package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/extract"
	"github.com/adurocher/mandat/internal/model"
)

// Renderer writes the output tables to the terminal and to CSV/JSON
// files. Rounding happens here and only here; the tables carry exact
// values.
type Renderer struct {
	verbose bool
}

// NewRenderer creates a renderer.
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// missing marks an undefined value in terminal and CSV output.
const missing = "NA"

func fmtDate(t *time.Time) string {
	if t == nil {
		return missing
	}
	return t.Format("2006-01-02")
}

func fmtYears(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

// RenderTenure prints the tenure table.
func (r *Renderer) RenderTenure(w io.Writer, rows []model.DerivedRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Party", "Start", "End", "Duration (y)", "Age at start (y)"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Name,
			row.Party,
			fmtDate(row.StartDate),
			fmtDate(row.EndDate),
			fmtYears(row.DurationYears),
			fmtYears(row.AgeAtStartYears),
		})
	}
	if mean, ok := extract.MeanDuration(rows); ok {
		t.AppendFooter(table.Row{"", "", "", "mean", strconv.FormatFloat(mean, 'f', 3, 64), ""})
	}
	t.Render()
}

// RenderPolls prints the first rows of the long-form series; the full
// series belongs in the CSV/JSON outputs.
func (r *Renderer) RenderPolls(w io.Writer, rows []model.LongRow, limit int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Date", "Party", "Rank", "Value"})
	shown := len(rows)
	if limit > 0 && limit < shown {
		shown = limit
	}
	for _, row := range rows[:shown] {
		t.AppendRow(table.Row{
			row.Date.Format("2006-01-02"),
			row.Party,
			row.Rank,
			strconv.FormatFloat(row.Value, 'f', 1, 64),
		})
	}
	t.Render()
	if shown < len(rows) {
		fmt.Fprintf(w, "... %d more rows\n", len(rows)-shown)
	}
}

// RenderAudit prints the aggregate data-quality report so the run's
// gaps are visible, not just the surviving rows.
func (r *Renderer) RenderAudit(w io.Writer, report audit.Report) {
	if report.Total == 0 {
		fmt.Fprintln(w, "audit: no data-quality issues recorded")
		return
	}
	fmt.Fprintf(w, "audit: %d issues\n", report.Total)
	for _, kind := range []audit.Kind{
		audit.KindExtractionMiss, audit.KindDateParse,
		audit.KindNumericCoercion, audit.KindStructuralRow,
		audit.KindMetricViolation,
	} {
		if n := report.ByKind[kind]; n > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", kind, n)
		}
	}
	if r.verbose {
		for _, issue := range report.Issues {
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}
}

// WriteTenureCSV writes the full tenure table.
func (r *Renderer) WriteTenureCSV(path string, rows []model.DerivedRow) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{
			"name", "birth_date", "party", "occupation", "birth_region",
			"start_date", "end_date", "duration_years", "age_at_start_years",
		}
		if err := w.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			record := []string{
				row.Name,
				fmtDate(row.BirthDate),
				row.Party,
				row.Occupation,
				row.BirthRegion,
				fmtDate(row.StartDate),
				fmtDate(row.EndDate),
				csvYears(row.DurationYears),
				csvYears(row.AgeAtStartYears),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WritePollsCSV writes the full long-form series.
func (r *Renderer) WritePollsCSV(path string, rows []model.LongRow) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"date", "category", "rank", "value"}); err != nil {
			return err
		}
		for _, row := range rows {
			record := []string{
				row.Date.Format("2006-01-02"),
				row.Party,
				strconv.Itoa(row.Rank),
				strconv.FormatFloat(row.Value, 'f', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// csvYears writes full precision to CSV; presentation rounding is for
// the terminal only.
func csvYears(v *float64) string {
	if v == nil {
		return missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func writeCSV(path string, write func(*csv.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

// WriteJSON writes any output structure as indented JSON.
func (r *Renderer) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
