package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/camden-git/clubdash/attendance"
	"github.com/camden-git/clubdash/table"
)

type AttendanceHandler struct {
	App *App
}

func (h *AttendanceHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date     string             `json:"date"`
		Category string             `json:"category"`
		Activity string             `json:"activity"`
		Entries  []attendance.Entry `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	day := h.App.now()
	if s := strings.TrimSpace(req.Date); s != "" {
		d, ok := table.ParseDate(s)
		if !ok {
			badRequest(w, "date must be a dd/mm/yyyy date")
			return
		}
		day = d
	}
	sess := attendance.Session{Date: day, Category: req.Category, Activity: req.Activity, Entries: req.Entries}
	n, err := h.App.Attendance.WithCache(sessionCache(r)).Save(r.Context(), sess)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"saved": n, "date": day.Format(table.DayLayout)})
}

// dateRange reads ?from= and ?to= as dd/mm/yyyy; blank bounds stay open.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	parse := func(name string) (*time.Time, bool) {
		s := strings.TrimSpace(r.URL.Query().Get(name))
		if s == "" {
			return nil, true
		}
		d, ok := table.ParseDate(s)
		if !ok {
			badRequest(w, name+" must be a dd/mm/yyyy date")
			return nil, false
		}
		return &d, true
	}
	if from, ok = parse("from"); !ok {
		return nil, nil, false
	}
	if to, ok = parse("to"); !ok {
		return nil, nil, false
	}
	return from, to, true
}

func (h *AttendanceHandler) report(w http.ResponseWriter, r *http.Request) (*table.Table, attendance.Filter, bool) {
	from, to, ok := dateRange(w, r)
	if !ok {
		return nil, attendance.Filter{}, false
	}
	t, err := h.App.Attendance.WithCache(sessionCache(r)).Report(r.Context(), from, to)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return nil, attendance.Filter{}, false
	}
	q := r.URL.Query()
	return t, attendance.Filter{Category: q.Get("category"), Activity: q.Get("activity")}, true
}

func (h *AttendanceHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	t, f, ok := h.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": attendance.Summarize(t, f),
		"columns": t.Columns,
		"total":   t.Len(),
	})
}

func (h *AttendanceHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	t, f, ok := h.report(w, r)
	if !ok {
		return
	}
	h.App.writeCSV(w, "asistencias", attendance.Apply(t, f))
}
