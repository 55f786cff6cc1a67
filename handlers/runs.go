package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/clubdash/database"
)

// RunHandler lists the reconcile-run audit log.
type RunHandler struct {
	App *App
}

func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.App.DB == nil {
		writeJSON(w, http.StatusOK, []database.ReconcileRun{})
		return
	}
	var limit uint64
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := database.ListReconcileRuns(h.App.DB, limit)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	if runs == nil {
		runs = []database.ReconcileRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "run_id"), 10, 64)
	if err != nil {
		badRequest(w, "Invalid run ID format")
		return
	}
	if h.App.DB == nil {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "run audit is disabled")
		return
	}
	run, err := database.GetReconcileRun(h.App.DB, id)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
