package attendance

import (
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/table"
)

// Format tells which sheet layout a summary was computed from.
type Format string

const (
	FormatMarks  Format = "estado_asistencia"
	FormatLegacy Format = "presente"
	FormatNone   Format = "none"
)

// Filter narrows a report before summarizing. Empty fields match all.
type Filter struct {
	Category string
	Activity string
}

// Summary aggregates a report.
type Summary struct {
	Format           Format                    `json:"format"`
	Total            int                       `json:"total"`
	Present          int                       `json:"present"`
	Absent           int                       `json:"absent"`
	Injured          int                       `json:"injured"`
	ParticipationPct float64                   `json:"participation_pct"`
	PresentPct       float64                   `json:"present_pct"`
	ByCategory       map[string]map[string]int `json:"by_category"`
	Activities       []string                  `json:"activities"`
	Categories       []string                  `json:"categories"`
}

// Apply narrows t to the filter's category and activity.
func Apply(t *table.Table, f Filter) *table.Table {
	rows := t
	if f.Category != "" && f.Category != "Todas" {
		rows = rows.Equals(colCategory, f.Category)
	}
	if f.Activity != "" && f.Activity != "Todas" {
		rows = rows.Equals(colActivity, f.Activity)
	}
	return rows
}

// Summarize counts marks. Injured players count as participating since they
// attend. Sheets written before marks existed only carry a "Presente"
// column; there participation equals presence.
func Summarize(t *table.Table, f Filter) Summary {
	sum := Summary{Format: FormatNone, ByCategory: make(map[string]map[string]int)}
	if t == nil {
		return sum
	}
	sum.Activities = t.DistinctSorted(colActivity)
	sum.Categories = t.DistinctSorted(colCategory)

	rows := Apply(t, f)

	col := ""
	switch {
	case rows.HasColumn(colMark):
		col, sum.Format = colMark, FormatMarks
	case rows.HasColumn(colLegacy):
		col, sum.Format = colLegacy, FormatLegacy
	default:
		return sum
	}

	for _, r := range rows.Rows {
		mark := r.Get(col)
		sum.Total++
		switch Mark(mark) {
		case Present:
			sum.Present++
		case Absent:
			sum.Absent++
		case Injured:
			if sum.Format == FormatMarks {
				sum.Injured++
			}
		}
		cat := r.Get(colCategory)
		if sum.ByCategory[cat] == nil {
			sum.ByCategory[cat] = make(map[string]int)
		}
		sum.ByCategory[cat][mark]++
	}
	if sum.Total == 0 {
		return sum
	}
	participating := sum.Present
	if sum.Format == FormatMarks {
		participating += sum.Injured
	}
	sum.ParticipationPct = numeric.Round1(float64(participating) / float64(sum.Total) * 100)
	sum.PresentPct = numeric.Round1(float64(sum.Present) / float64(sum.Total) * 100)
	return sum
}
