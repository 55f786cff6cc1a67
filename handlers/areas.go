package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clubdash/areas"
	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/config"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

// Area names accepted in /api/areas/{area}.
const (
	AreaMedical   = "medical"
	AreaNutrition = "nutrition"
	AreaPhysical  = "physical"
)

type AreaHandler struct {
	App *App
}

// AreaResponse is an area page. Only the blocks relevant to the area are set.
type AreaResponse struct {
	Area       string                    `json:"area"`
	Source     string                    `json:"source"`
	Records    int                       `json:"records"`
	Players    int                       `json:"players"`
	Categories []string                  `json:"categories"`
	Metrics    []areas.MetricSummary     `json:"metrics"`
	Warnings   []string                  `json:"warnings"`
	Medical    *medical.Stats            `json:"medical,omitempty"`
	ByCategory map[string]int            `json:"by_category,omitempty"`
	Goals      map[string]map[string]int `json:"goals,omitempty"`
	Tests      []string                  `json:"tests,omitempty"`
	Subtests   []string                  `json:"subtests,omitempty"`
	Ranking    *areas.Ranking            `json:"ranking,omitempty"`
}

func (ah *AreaHandler) source(area string) (config.SourceConfig, bool) {
	s := ah.App.Cfg.Sources
	switch area {
	case AreaMedical:
		return s.Medical, true
	case AreaNutrition:
		return s.Nutrition, true
	case AreaPhysical:
		return s.Physical, true
	}
	return config.SourceConfig{}, false
}

func (ah *AreaHandler) rows(w http.ResponseWriter, r *http.Request) (*reconcile.Result, config.SourceConfig, *table.Table, bool) {
	area := chi.URLParam(r, "area")
	src, ok := ah.source(area)
	if !ok {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "unknown area: "+area)
		return nil, src, nil, false
	}
	res, err := ah.App.unified(r)
	if err != nil {
		writeError(w, ah.App.Logger, err)
		return nil, src, nil, false
	}
	t := reconcile.BySource(res.Table, src.Label)
	t = filterCategory(t, res.Roster.Category, r.URL.Query().Get("category"))
	return res, src, t, true
}

func (ah *AreaHandler) GetArea(w http.ResponseWriter, r *http.Request) {
	res, src, t, ok := ah.rows(w, r)
	if !ok {
		return
	}
	area := chi.URLParam(r, "area")
	resp := AreaResponse{
		Area:       area,
		Source:     src.Label,
		Records:    t.Len(),
		Categories: reconcile.Categories(reconcile.BySource(res.Table, src.Label)),
		Metrics:    areas.Summarize(t, src.Metrics, ah.App.Cfg.WeightParser()),
		Warnings:   []string{},
	}
	if idCol, ok := columns.Resolve(t.Columns, columns.Identifier); ok {
		resp.Players = len(t.DistinctSorted(idCol))
	}
	for _, rep := range res.Reports {
		if rep.Label == src.Label && rep.Warning != "" {
			resp.Warnings = append(resp.Warnings, rep.Warning)
		}
	}

	switch area {
	case AreaMedical:
		st := medical.ComputeStats(t, ah.App.now())
		resp.Medical = &st
		resp.ByCategory = make(map[string]int)
		for _, row := range t.Rows {
			resp.ByCategory[medical.NormalizeCategory(row.Get(res.Roster.Category))]++
		}
	case AreaNutrition:
		resp.Goals = areas.Goals(t)
	case AreaPhysical:
		resp.Tests = areas.Tests(t)
		if test := r.URL.Query().Get("test"); test != "" {
			subtest := r.URL.Query().Get("subtest")
			rk := areas.Rank(t, test, subtest)
			resp.Ranking = &rk
			resp.Subtests = areas.Subtests(t, test)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ah *AreaHandler) ExportArea(w http.ResponseWriter, r *http.Request) {
	_, src, t, ok := ah.rows(w, r)
	if !ok {
		return
	}
	ah.App.writeCSV(w, src.Label, t)
}
