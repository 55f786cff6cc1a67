// Package medical derives player medical history, training status and
// area statistics from the medical visits sheet.
package medical

import (
	"strings"
	"time"

	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/table"
)

const (
	ColAttendedAt = "Fecha de Atención"
	ColTimestamp  = "Marca temporal"
	ColCanTrain   = "¿Puede participar en entrenamientos?"
	ColInjuryType = "Tipo de lesión"
	ColSeverity   = "Severidad"

	NoCategory = "Sin Categoría"
	NotAvail   = "N/A"
)

// TrainingStatus is what the latest visit allows the player to do.
type TrainingStatus string

const (
	TrainingUnknown      TrainingStatus = ""
	TrainingActive       TrainingStatus = "Activo"
	TrainingDifferential TrainingStatus = "Diferenciado"
	TrainingInactive     TrainingStatus = "Inactivo"
)

// History returns the visits of the player with id, newest first by
// attention date, falling back to the form timestamp.
func History(t *table.Table, id string) *table.Table {
	id = identity.NormalizeID(id)
	idCol, ok := columns.Resolve(t.Columns, columns.Identifier)
	if !ok || id == "" {
		return table.New(t.Columns...)
	}
	h := t.Filter(func(r table.Row) bool { return identity.NormalizeID(r[idCol]) == id })
	if col := historyDateColumn(h); col != "" {
		h.SortByDate(col, true)
	}
	return h
}

func historyDateColumn(t *table.Table) string {
	for _, c := range []string{ColAttendedAt, ColTimestamp} {
		if t.HasColumn(c) {
			return c
		}
	}
	c, _ := columns.Resolve(t.Columns, columns.Date)
	return c
}

// CurrentTraining reads the training permission of the newest visit in a
// history produced by History.
func CurrentTraining(history *table.Table) TrainingStatus {
	if history.Empty() {
		return TrainingUnknown
	}
	col := ColCanTrain
	if !history.HasColumn(col) {
		found, ok := columns.FindContaining(history.Columns, "participar", "entrenamiento")
		if !ok {
			return TrainingUnknown
		}
		col = found
	}
	return ParseTraining(history.Rows[0][col])
}

// ParseTraining maps a form answer onto a training status.
func ParseTraining(answer string) TrainingStatus {
	a := strings.ToLower(strings.TrimSpace(answer))
	switch {
	case a == "si" || a == "sí":
		return TrainingActive
	case strings.Contains(a, "diferenciado"):
		return TrainingDifferential
	case a == "no" || strings.HasPrefix(a, "no "):
		return TrainingInactive
	}
	return TrainingUnknown
}

// FollowUp classifies a severity description into the follow-up state shown
// to staff.
func FollowUp(severity string) string {
	s := strings.ToLower(severity)
	switch {
	case containsAny(s, "leve", "menor"):
		return "Seguimiento"
	case containsAny(s, "moderada", "moderado", "intermedio"):
		return "Tratamiento activo"
	case containsAny(s, "grave", "severo", "crítico", "critico"):
		return "Atención prioritaria"
	}
	return "En evaluación"
}

func isSevere(severity string) bool {
	return containsAny(strings.ToLower(severity), "grave", "crítico", "critico", "severo")
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// NormalizeCategory upper-cases a category so spelling variants group together.
func NormalizeCategory(cat string) string {
	cat = strings.TrimSpace(cat)
	if cat == "" {
		return NoCategory
	}
	return strings.ToUpper(cat)
}

// Stats summarizes the medical area.
type Stats struct {
	Total         int    `json:"total"`
	Today         int    `json:"today"`
	Professionals int    `json:"professionals"`
	Severe        int    `json:"severe"`
	LastRecord    string `json:"last_record"`
}

// ComputeStats counts visits, visits today, distinct professionals and
// severe cases. LastRecord is the date of the last sheet row.
func ComputeStats(t *table.Table, now time.Time) Stats {
	st := Stats{LastRecord: NotAvail}
	if t.Empty() {
		return st
	}
	st.Total = t.Len()

	dateCol := historyDateColumn(t)
	profCol, _ := columns.FindContaining(t.Columns, "profesional")
	sevCol := ColSeverity
	if !t.HasColumn(sevCol) {
		sevCol, _ = columns.FindContaining(t.Columns, "severidad")
	}

	profs := make(map[string]struct{})
	y, m, d := now.Date()
	for _, r := range t.Rows {
		if p := identity.NameKey(r[profCol]); profCol != "" && p != "" {
			profs[p] = struct{}{}
		}
		if dateCol != "" {
			if at, ok := table.ParseDate(r[dateCol]); ok {
				if ay, am, ad := at.Date(); ay == y && am == m && ad == d {
					st.Today++
				}
			}
		}
		if sevCol != "" && isSevere(r[sevCol]) {
			st.Severe++
		}
	}
	st.Professionals = len(profs)

	if dateCol != "" {
		last := t.Rows[len(t.Rows)-1].Get(dateCol)
		if at, ok := table.ParseDate(last); ok {
			st.LastRecord = at.Format("02/01/2006 15:04")
		} else if last != "" {
			st.LastRecord = last
		}
	}
	return st
}

// Summary is the medical panel of a player profile.
type Summary struct {
	Training     TrainingStatus `json:"training"`
	LastControl  string         `json:"last_control"`
	ActiveInjury string         `json:"active_injury"`
	FollowUp     string         `json:"follow_up,omitempty"`
	Visits       int            `json:"visits"`
}

// Summarize builds the profile panel from a player's history.
func Summarize(history *table.Table) Summary {
	s := Summary{LastControl: NotAvail, ActiveInjury: "Ninguna", Visits: history.Len()}
	if history.Empty() {
		return s
	}
	s.Training = CurrentTraining(history)
	latest := history.Rows[0]
	if col := historyDateColumn(history); col != "" {
		if at, ok := table.ParseDate(latest[col]); ok {
			s.LastControl = at.Format("02/01/06")
		} else if v := latest.Get(col); v != "" {
			s.LastControl = v
		}
	}
	if v := latest.Get(ColInjuryType); v != "" {
		s.ActiveInjury = v
	}
	if v := latest.Get(ColSeverity); v != "" {
		s.FollowUp = FollowUp(v)
	}
	return s
}
