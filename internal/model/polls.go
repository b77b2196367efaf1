package model

import "time"

// RawRow is one data row of the wide polling table as lifted from the
// HTML source: original header text mapped to the raw cell string.
// Index is the positional row number within the table body (0-based),
// used by the configured exclusion list.
type RawRow struct {
	Index int
	Cells map[string]string
}

// TidyRow is one polling observation after renaming, filtering and
// coercion. Numeric holds canonical field name to parsed value; a nil
// value records a cell that failed coercion.
type TidyRow struct {
	Firm    string
	Date    *time.Time
	Numeric map[string]*float64
}

// LongRow is one (date, category, value) observation of the pivoted
// time series. Rank carries the fixed display order of the category
// so downstream consumers never fall back to alphabetical order.
type LongRow struct {
	Date  time.Time `json:"date"`
	Party string    `json:"category"`
	Rank  int       `json:"rank"`
	Value float64   `json:"value"`
}
