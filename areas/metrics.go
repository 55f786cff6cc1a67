// Package areas computes the nutrition and physical area panels from
// reconciled sheet rows.
package areas

import (
	"fmt"
	"sort"
	"time"

	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

// Metric is a measurement column located by keywords, such as a weight
// column found by "peso" and "kg". Correct enables the magnitude
// correction of the weight parser; other metrics are parsed as typed.
type Metric struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Unit     string   `yaml:"unit" json:"unit,omitempty"`
	Correct  bool     `yaml:"correct_magnitude" json:"correct_magnitude,omitempty"`
}

// MetricSummary aggregates one metric over the latest record of each player.
type MetricSummary struct {
	Label     string        `json:"label"`
	Column    string        `json:"column,omitempty"`
	Unit      string        `json:"unit,omitempty"`
	Available bool          `json:"available"`
	Stats     numeric.Stats `json:"stats"`
	Mean      string        `json:"mean"`
	Min       string        `json:"min"`
	Max       string        `json:"max"`
}

// Placeholder is shown for metrics without usable data.
const Placeholder = "N/A"

// Summarize resolves every metric in t and aggregates it. Metrics marked
// Correct use weight, the rest numeric.Plain. Metrics whose column is
// missing or holds no number are reported unavailable.
func Summarize(t *table.Table, metrics []Metric, weight numeric.Parser) []MetricSummary {
	latest := reconcile.LatestPerPlayer(t)
	out := make([]MetricSummary, 0, len(metrics))
	for _, m := range metrics {
		ms := MetricSummary{Label: m.Label, Unit: m.Unit, Mean: Placeholder, Min: Placeholder, Max: Placeholder}
		col, ok := columns.FindContaining(t.Columns, m.Keywords...)
		if ok {
			ms.Column = col
			p := numeric.Plain
			if m.Correct {
				p = weight
			}
			if st, ok := p.Summarize(latest.Values(col)); ok {
				ms.Available = true
				ms.Stats = st
				ms.Mean = numeric.FormatAR(st.Mean)
				ms.Min = numeric.FormatAR(st.Min)
				ms.Max = numeric.FormatAR(st.Max)
			}
		}
		out = append(out, ms)
	}
	return out
}

// Point is one dated reading of a series.
type Point struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
	Text  string    `json:"text"`
}

var monthsES = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MonthLabel renders a date as a short Spanish month and year, e.g. "Mar 2024".
func MonthLabel(d time.Time) string {
	return fmt.Sprintf("%s %d", monthsES[d.Month()-1], d.Year())
}

// Series returns the readings of col in date order. Rows without a date or
// a positive reading are skipped.
func Series(t *table.Table, col string, p numeric.Parser, unit string) []Point {
	dateCol, ok := columns.Resolve(t.Columns, columns.Date)
	if !ok || col == "" {
		return nil
	}
	var pts []Point
	for _, r := range t.Rows {
		d, ok := table.ParseDate(r[dateCol])
		if !ok {
			continue
		}
		v, ok := p.Parse(r[col])
		if !ok || v <= 0 {
			continue
		}
		text := numeric.FormatAR(v)
		if unit != "" {
			text += " " + unit
		}
		pts = append(pts, Point{Date: d, Label: MonthLabel(d), Value: v, Text: text})
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return pts
}

// WeightColumn finds the body weight column of a nutrition sheet.
func WeightColumn(headers []string) (string, bool) {
	return columns.FindContaining(headers, "peso", "kg")
}

// PlayerSeries is the series of col for one player identifier.
func PlayerSeries(t *table.Table, id, col string, p numeric.Parser, unit string) []Point {
	return Series(reconcile.PlayerRows(t, identity.NormalizeID(id)), col, p, unit)
}
