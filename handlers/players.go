package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clubdash/areas"
	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/profile"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

type PlayerHandler struct {
	App *App
}

// playerID reads {player}, which is a DNI or a picker label.
func playerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "player")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	id, ok := reconcile.ParseSelection(raw)
	if !ok {
		badRequest(w, "player must be a DNI or a \"Name (DNI: n)\" selection")
		return "", false
	}
	return id, true
}

func (ph *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	res, err := ph.App.unified(r)
	if err != nil {
		writeError(w, ph.App.Logger, err)
		return
	}
	roster := reconcile.BySource(res.Table, reconcile.RosterLabel)
	players := reconcile.PlayersByCategory(roster, r.URL.Query().Get("category"))
	if players == nil {
		players = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": reconcile.Categories(roster),
		"players":    players,
	})
}

func (ph *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	res, err := ph.App.unified(r)
	if err != nil {
		writeError(w, ph.App.Logger, err)
		return
	}
	pr, err := profile.Build(res.Table, id, ph.App.labels(), ph.App.Cfg.WeightParser())
	if err != nil {
		writeError(w, ph.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// GetMedicalHistory reads the medical sheet directly so visits of players
// missing from the roster still show.
func (ph *PlayerHandler) GetMedicalHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	history, summary, err := ph.App.Medical.WithCache(sessionCache(r)).Player(r.Context(), id)
	if err != nil {
		writeError(w, ph.App.Logger, err)
		return
	}
	rows := history.Rows
	if rows == nil {
		rows = []table.Row{}
	}
	writeJSON(w, http.StatusOK, struct {
		Summary medical.Summary `json:"summary"`
		Columns []string        `json:"columns"`
		Rows    []table.Row     `json:"rows"`
	}{summary, history.Columns, rows})
}

// GetSeries returns a nutrition reading over time. ?metric= names a
// configured nutrition metric label; the default is body weight.
func (ph *PlayerHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	res, err := ph.App.unified(r)
	if err != nil {
		writeError(w, ph.App.Logger, err)
		return
	}
	nutrition := reconcile.BySource(res.Table, ph.App.Cfg.Sources.Nutrition.Label)

	col, unit := "", "kg"
	found := false
	if name := r.URL.Query().Get("metric"); name != "" {
		for _, m := range ph.App.Cfg.Sources.Nutrition.Metrics {
			if m.Label == name {
				col, found = columns.FindContaining(nutrition.Columns, m.Keywords...)
				unit = m.Unit
				break
			}
		}
	} else {
		col, found = areas.WeightColumn(nutrition.Columns)
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]interface{}{"column": "", "points": []areas.Point{}})
		return
	}
	pts := areas.PlayerSeries(nutrition, id, col, ph.App.Cfg.WeightParser(), unit)
	if pts == nil {
		pts = []areas.Point{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"column": col, "points": pts})
}
