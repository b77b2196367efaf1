package reshape

import "github.com/adurocher/mandat/internal/model"

// Pivot reshapes tidy rows from wide (one numeric column per party)
// into long form: one (date, party, value) row per defined cell.
// Party labels and ranks come from the configured mapping; the rank is
// a fixed, domain-meaningful legend order, deliberately not
// alphabetical. Row order follows source order, parties in configured
// order within each row. Rows without a resolved date and cells with a
// missing value are skipped; they were already recorded during
// coercion.
func (r *Reshaper) Pivot(rows []model.TidyRow) []model.LongRow {
	var long []model.LongRow
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		for _, p := range r.cfg.Parties {
			v, ok := row.Numeric[p.Column]
			if !ok || v == nil {
				continue
			}
			long = append(long, model.LongRow{
				Date:  *row.Date,
				Party: p.Label,
				Rank:  p.Rank,
				Value: *v,
			})
		}
	}
	return long
}
