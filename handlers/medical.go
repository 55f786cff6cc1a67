package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/table"
)

type MedicalHandler struct {
	App *App
}

func (mh *MedicalHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := mh.App.Medical.WithCache(sessionCache(r)).Stats(r.Context())
	if err != nil {
		writeError(w, mh.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (mh *MedicalHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		medical.Report
		AttendedOn string `json:"attended_on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if s := strings.TrimSpace(req.AttendedOn); s != "" {
		d, ok := table.ParseDate(s)
		if !ok {
			badRequest(w, "attended_on must be a dd/mm/yyyy date")
			return
		}
		req.Report.AttendedAt = d
	}
	id, err := mh.App.Medical.AddReport(r.Context(), req.Report)
	if err != nil {
		writeError(w, mh.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":        id,
		"follow_up": medical.FollowUp(req.Severity),
	})
}
