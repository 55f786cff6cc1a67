// Package profile assembles the 360° view of one player from the unified
// reconciled table.
package profile

import (
	"errors"
	"strings"

	"github.com/camden-git/clubdash/areas"
	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

var ErrPlayerNotFound = errors.New("player not found in unified view")

// Labels are the provenance labels of the auxiliary sources.
type Labels struct {
	Medical   string
	Nutrition string
	Physical  string
}

// Profile is everything known about one player.
type Profile struct {
	ID           string               `json:"dni"`
	Name         string               `json:"name"`
	Category     string               `json:"category"`
	Position     string               `json:"position"`
	Weight       string               `json:"weight"`
	Height       string               `json:"height"`
	Physical     []areas.Highlight    `json:"physical"`
	Medical      medical.Summary      `json:"medical"`
	Nutrition    areas.NutritionPanel `json:"nutrition"`
	WeightSeries []areas.Point        `json:"weight_series"`
	Records      map[string]int       `json:"records"`
}

var (
	positionColumns = []string{"Posicion", "Posición del jugador", "Posición"}
	heightColumns   = []string{"Talla (cm): [Número]", "Talla", "Altura"}
	weightColumns   = []string{areas.ColWeight, "Peso"}
)

// Build gathers the profile of id. The weight parser p applies to body
// weight readings.
func Build(unified *table.Table, id string, labels Labels, p numeric.Parser) (Profile, error) {
	rows := reconcile.PlayerRows(unified, id)
	if rows.Empty() {
		return Profile{}, ErrPlayerNotFound
	}
	cols := columns.ResolveAll(rows.Columns)
	pr := Profile{
		ID:      identity.NormalizeID(id),
		Name:    "Jugador sin nombre",
		Weight:  areas.Placeholder,
		Height:  areas.Placeholder,
		Records: make(map[string]int),
	}
	for _, r := range rows.Rows {
		pr.Records[r[reconcile.ProvenanceColumn]]++
		if pr.Name == "Jugador sin nombre" && r.Get(cols.Name) != "" {
			pr.Name = r.Get(cols.Name)
		}
		if pr.Category == "" {
			pr.Category = r.Get(cols.Category)
		}
		if pr.Position == "" {
			pr.Position = firstValue(r, positionColumns)
		}
	}

	if w, ok := newestReading(rows, weightColumns, []string{"peso"}, p); ok {
		pr.Weight = numeric.FormatAR(w) + " kg"
	}
	if h, ok := newestReading(rows, heightColumns, []string{"talla", "altura", "estatura"}, numeric.Plain); ok {
		pr.Height = numeric.FormatAR(h) + " cm"
	}

	pr.Physical = areas.Highlights(reconcile.BySource(rows, labels.Physical))
	pr.Medical = medical.Summarize(medical.History(reconcile.BySource(rows, labels.Medical), pr.ID))

	nutrition := reconcile.BySource(rows, labels.Nutrition)
	pr.Nutrition = areas.Nutrition(nutrition, p)
	if col, ok := areas.WeightColumn(nutrition.Columns); ok {
		pr.WeightSeries = areas.Series(nutrition, col, p, "kg")
	}
	return pr, nil
}

func firstValue(r table.Row, cols []string) string {
	for _, c := range cols {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}

// newestReading scans rows from the last one backwards for a positive
// reading, trying the known columns first and then any column whose
// header contains one of the hints.
func newestReading(rows *table.Table, known, hints []string, p numeric.Parser) (float64, bool) {
	var fuzzy []string
	for _, c := range rows.Columns {
		lc := strings.ToLower(c)
		for _, h := range hints {
			if strings.Contains(lc, h) {
				fuzzy = append(fuzzy, c)
				break
			}
		}
	}
	for i := len(rows.Rows) - 1; i >= 0; i-- {
		r := rows.Rows[i]
		for _, group := range [][]string{known, fuzzy} {
			for _, c := range group {
				if v, ok := p.Parse(r[c]); ok && v > 0 {
					return v, true
				}
			}
		}
	}
	return 0, false
}
