package handlers

import (
	"net/http"

	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

type DashboardHandler struct {
	App *App
}

// DashboardResponse is the unified view page.
type DashboardResponse struct {
	Columns    []string                 `json:"columns"`
	Rows       []table.Row              `json:"rows"`
	Total      int                      `json:"total"`
	Categories []string                 `json:"categories"`
	Players    []string                 `json:"players"`
	Reports    []reconcile.SourceReport `json:"reports"`
	Warnings   []string                 `json:"warnings"`
	Roster     reconcile.RosterColumns  `json:"roster_columns"`
}

// filtered applies the page filters: ?category=, ?player= (picker label or
// DNI) and ?source= (provenance label).
func (dh *DashboardHandler) filtered(r *http.Request) (*reconcile.Result, *table.Table, error) {
	res, err := dh.App.unified(r)
	if err != nil {
		return nil, nil, err
	}
	q := r.URL.Query()
	t := filterCategory(res.Table, res.Roster.Category, q.Get("category"))
	if sel := q.Get("player"); sel != "" {
		if id, ok := reconcile.ParseSelection(sel); ok {
			t = reconcile.PlayerRows(t, id)
		}
	}
	if src := q.Get("source"); src != "" {
		t = reconcile.BySource(t, src)
	}
	return res, t, nil
}

func (dh *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	res, t, err := dh.filtered(r)
	if err != nil {
		writeError(w, dh.App.Logger, err)
		return
	}
	resp := DashboardResponse{
		Columns:    t.Columns,
		Rows:       t.Rows,
		Total:      t.Len(),
		Categories: reconcile.Categories(res.Table),
		Players:    reconcile.PlayersByCategory(res.Table, r.URL.Query().Get("category")),
		Reports:    res.Reports,
		Warnings:   res.Warnings,
		Roster:     res.Roster,
	}
	if resp.Rows == nil {
		resp.Rows = []table.Row{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (dh *DashboardHandler) ExportDashboard(w http.ResponseWriter, r *http.Request) {
	_, t, err := dh.filtered(r)
	if err != nil {
		writeError(w, dh.App.Logger, err)
		return
	}
	dh.App.writeCSV(w, "unificado", t)
}
