package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clubdash/syncconfig"
	"github.com/camden-git/clubdash/table"
)

// SyncHandler manages the external sheet connections.
type SyncHandler struct {
	App *App
}

func (h *SyncHandler) kind(w http.ResponseWriter, r *http.Request) (syncconfig.Kind, bool) {
	k, err := syncconfig.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, h.App.Logger, err)
		return "", false
	}
	return k, true
}

func (h *SyncHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	out := make(map[syncconfig.Kind][]syncconfig.Connection, len(syncconfig.Kinds))
	for _, k := range syncconfig.Kinds {
		conns, err := h.App.Sync.Store.List(k)
		if err != nil {
			writeError(w, h.App.Logger, err)
			return
		}
		out[k] = conns
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SyncHandler) List(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	conns, err := h.App.Sync.Store.List(k)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (h *SyncHandler) Add(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	var req struct {
		URL       string `json:"url"`
		Owner     string `json:"owner"`
		Worksheet string `json:"worksheet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	c, err := h.App.Sync.Store.Add(k, req.URL, req.Owner, req.Worksheet)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *SyncHandler) Remove(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	if err := h.App.Sync.Store.Remove(k, chi.URLParam(r, "connection_id")); err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	k, ok := h.kind(w, r)
	if !ok {
		return
	}
	records, c, err := h.App.Sync.Sync(r.Context(), k, chi.URLParam(r, "connection_id"))
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	rows := records.Rows
	if rows == nil {
		rows = []table.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connection": c,
		"columns":    records.Columns,
		"rows":       rows,
	})
}

func (h *SyncHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	title, err := h.App.Sync.Test(r.Context(), req.URL)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	worksheets, err := h.App.Sync.Worksheets(r.Context(), req.URL)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"title": title, "worksheets": worksheets})
}
