package areas

import (
	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/table"
)

// Nutrition sheet columns read by the profile panel.
const (
	ColWeight = "Peso (kg): [Número con decimales 88,5]"
	ColFat    = "% grasa corporal"
	ColBMI    = "IMC"
)

// NutritionPanel is the nutrition block of a player profile.
type NutritionPanel struct {
	Weight         string `json:"weight"`
	BodyFat        string `json:"body_fat"`
	BMI            string `json:"bmi"`
	LastEvaluation string `json:"last_evaluation"`
	Measurements   int    `json:"measurements"`
}

// Nutrition reads the latest measurement of one player's nutrition rows.
// Missing readings show Placeholder.
func Nutrition(rows *table.Table, p numeric.Parser) NutritionPanel {
	np := NutritionPanel{Weight: Placeholder, BodyFat: Placeholder, BMI: Placeholder, LastEvaluation: Placeholder, Measurements: rows.Len()}
	if rows.Empty() {
		return np
	}
	dateCol, hasDate := columns.Resolve(rows.Columns, columns.Date)
	sorted := rows.Clone()
	if hasDate {
		sorted.SortByDate(dateCol, false)
	}
	last := sorted.Rows[len(sorted.Rows)-1]

	weightCol := ColWeight
	if !rows.HasColumn(weightCol) {
		weightCol, _ = columns.FindContaining(rows.Columns, "peso")
	}
	if v, ok := p.Parse(last[weightCol]); ok && weightCol != "" {
		np.Weight = numeric.FormatAR(v) + " kg"
	}
	if v, ok := numeric.Plain.Parse(last[ColFat]); ok {
		np.BodyFat = numeric.FormatAR(v) + "%"
	}
	if v, ok := numeric.Plain.Parse(last[ColBMI]); ok {
		np.BMI = numeric.FormatAR(v)
	}
	if hasDate {
		if d, ok := table.ParseDate(last[dateCol]); ok {
			np.LastEvaluation = d.Format(table.DayLayout)
		}
	}
	return np
}

// Goals counts the nutrition goal per category. Rows without a goal count
// as "Sin Definir".
func Goals(t *table.Table) map[string]map[string]int {
	goalCol, ok := columns.FindContaining(t.Columns, "objetivo")
	if !ok {
		return nil
	}
	catCol, _ := columns.Resolve(t.Columns, columns.Category)
	out := make(map[string]map[string]int)
	for _, r := range t.Rows {
		cat := r.Get(catCol)
		if cat == "" {
			cat = "Sin Categoría"
		}
		goal := r.Get(goalCol)
		if goal == "" {
			goal = "Sin Definir"
		}
		if out[cat] == nil {
			out[cat] = make(map[string]int)
		}
		out[cat][goal]++
	}
	return out
}
