// Package reshape turns the wide polling table into a tidy long-form
// time series through four sequential stages: rename, filter, coerce,
// pivot. Every stage handles malformed input locally. A bad cell
// becomes a missing value, a bad row is excluded and recorded, and
// the batch always runs to completion.
package reshape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/model"
)

type stripRule struct {
	literal string
	replace string
	re      *regexp.Regexp
}

// Reshaper applies the configured rename map, positional exclusions,
// coercion rules and party pivot to raw table rows. Numeric cells and
// the date cell carry separate strip lists: the numeric rules remove
// decorations like "%" and thousands commas, which would corrupt a
// month-day-year date.
type Reshaper struct {
	cfg        model.PollsConfig
	strips     []stripRule
	dateStrips []stripRule
	exclude    map[int]bool
}

// NewReshaper compiles the configured strip rules. Rules are applied
// in configuration order; a regex rule that fails to compile rejects
// the configuration up front.
func NewReshaper(cfg model.PollsConfig) (*Reshaper, error) {
	strips, err := compileStrips(cfg.StripRules)
	if err != nil {
		return nil, err
	}
	dateStrips, err := compileStrips(cfg.DateStripRules)
	if err != nil {
		return nil, err
	}

	exclude := make(map[int]bool, len(cfg.ExcludeRows))
	for _, i := range cfg.ExcludeRows {
		exclude[i] = true
	}

	return &Reshaper{cfg: cfg, strips: strips, dateStrips: dateStrips, exclude: exclude}, nil
}

func compileStrips(rules []model.StripRule) ([]stripRule, error) {
	compiled := make([]stripRule, 0, len(rules))
	for _, r := range rules {
		rule := stripRule{literal: r.Pattern, replace: r.Replace}
		if r.Regex {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("strip rule %q: %w", r.Pattern, err)
			}
			rule.re = re
		}
		compiled = append(compiled, rule)
	}
	return compiled, nil
}

// Reshape runs rename, filter and coerce over the raw rows, in source
// order, and returns the tidy rows. Pivot is a separate step (see
// Pivot) so callers can consume either form.
func (r *Reshaper) Reshape(rows []model.RawRow, issues *audit.Collector) []model.TidyRow {
	var tidy []model.TidyRow
	for _, raw := range rows {
		renamed := r.rename(raw)
		row, ok := r.filter(raw.Index, renamed, issues)
		if !ok {
			continue
		}
		tidy = append(tidy, r.coerce(raw.Index, row, issues))
	}
	return tidy
}

// rename maps source headers to canonical field names. Headers absent
// from the map are dropped. Matching is verbatim, footnote bracket
// text included.
func (r *Reshaper) rename(raw model.RawRow) map[string]string {
	out := make(map[string]string, len(r.cfg.Renames))
	for header, cell := range raw.Cells {
		if canonical, ok := r.cfg.Renames[header]; ok {
			out[canonical] = cell
		}
	}
	return out
}

// filter drops positionally excluded rows (known header repeats and
// separator artifacts in the source table) and rows whose key field is
// empty. Exclusion is exact by index, independent of content.
func (r *Reshaper) filter(index int, row map[string]string, issues *audit.Collector) (map[string]string, bool) {
	subject := fmt.Sprintf("row %d", index)
	if r.exclude[index] {
		if issues != nil {
			issues.Add(audit.KindStructuralRow, subject, "", "positionally excluded source artifact")
		}
		return nil, false
	}
	if strings.TrimSpace(row[r.cfg.KeyField]) == "" {
		if issues != nil {
			issues.Add(audit.KindStructuralRow, subject, r.cfg.KeyField, "empty key field")
		}
		return nil, false
	}
	return row, true
}

// coerce parses the date column using the source's month-day-year
// convention, with only the date strip rules applied to it, and the
// flagged numeric columns through the ordered numeric strip rules. A
// cell that fails to parse becomes a missing value for that cell only.
func (r *Reshaper) coerce(index int, row map[string]string, issues *audit.Collector) model.TidyRow {
	subject := fmt.Sprintf("row %d", index)
	tidy := model.TidyRow{
		Firm:    strings.TrimSpace(row[r.cfg.KeyField]),
		Numeric: make(map[string]*float64, len(r.cfg.NumericFields)),
	}

	if raw, ok := row[r.cfg.DateField]; ok {
		d, err := time.ParseInLocation(r.cfg.DateLayout, strings.TrimSpace(applyStrips(r.dateStrips, raw)), time.UTC)
		if err != nil {
			if issues != nil {
				issues.Add(audit.KindDateParse, subject, r.cfg.DateField, "%q does not match layout %q", raw, r.cfg.DateLayout)
			}
		} else {
			tidy.Date = &d
		}
	}

	for _, field := range r.cfg.NumericFields {
		raw, ok := row[field]
		if !ok {
			continue
		}
		v, err := r.Number(raw)
		if err != nil {
			tidy.Numeric[field] = nil
			if issues != nil {
				issues.Add(audit.KindNumericCoercion, subject, field, "%v", err)
			}
			continue
		}
		tidy.Numeric[field] = &v
	}

	return tidy
}

// Number coerces one decorated numeric cell: the strip rules run in
// order, then the remainder is parsed as a float. A cell with no
// digits after stripping is a missing value, reported as an error
// here and recorded as such by the caller.
func (r *Reshaper) Number(raw string) (float64, error) {
	s := strings.TrimSpace(applyStrips(r.strips, raw))
	if s == "" {
		return 0, fmt.Errorf("empty after stripping %q", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("no parsable number in %q (stripped to %q)", raw, s)
	}
	return v, nil
}

func applyStrips(rules []stripRule, s string) string {
	for _, rule := range rules {
		if rule.re != nil {
			s = rule.re.ReplaceAllString(s, rule.replace)
		} else {
			s = strings.ReplaceAll(s, rule.literal, rule.replace)
		}
	}
	return s
}
