package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/camden-git/clubdash/attendance"
	"github.com/camden-git/clubdash/roster"
	"github.com/camden-git/clubdash/table"
)

// AdminRosterHandler serves roster administration: listing, registering
// players and changing their status.
type AdminRosterHandler struct {
	App *App
}

func (h *AdminRosterHandler) GetCatalogues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"divisions":  roster.Divisions,
		"positions":  roster.Positions,
		"statuses":   roster.Statuses,
		"activities": attendance.Activities,
	})
}

func rosterFilter(r *http.Request) roster.Filter {
	q := r.URL.Query()
	return roster.Filter{Category: q.Get("category"), Position: q.Get("position"), Status: q.Get("status")}
}

func (h *AdminRosterHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.App.Roster.WithCache(sessionCache(r)).Players(r.Context())
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	list, summary := roster.Apply(players, rosterFilter(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"players": list,
		"summary": summary,
	})
}

func (h *AdminRosterHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		roster.NewPlayer
		BirthDay string `json:"birth_day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if s := strings.TrimSpace(req.BirthDay); s != "" {
		d, ok := table.ParseDate(s)
		if !ok {
			badRequest(w, "birth_day must be a dd/mm/yyyy date")
			return
		}
		req.NewPlayer.BirthDate = d
	}
	c := sessionCache(r)
	p, err := h.App.Roster.WithCache(c).Add(r.Context(), req.NewPlayer)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	c.Delete(unifiedKey)
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminRosterHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body: "+err.Error())
		return
	}
	status, err := roster.ParseStatus(req.Status)
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	c := sessionCache(r)
	if err := h.App.Roster.WithCache(c).UpdateStatus(r.Context(), id, status); err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	c.Delete(unifiedKey)
	writeJSON(w, http.StatusOK, map[string]string{"dni": id, "status": string(status)})
}

func (h *AdminRosterHandler) ExportPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.App.Roster.WithCache(sessionCache(r)).Players(r.Context())
	if err != nil {
		writeError(w, h.App.Logger, err)
		return
	}
	list, _ := roster.Apply(players, rosterFilter(r))
	t := table.New(append(append([]string{}, roster.Headers...), roster.FullNameColumn)...)
	for _, p := range list {
		t.Rows = append(t.Rows, table.Row{
			"DNI": p.ID, "Nombre": p.FirstName, "Apellido": p.LastName,
			"Posicion": p.Position, "Categoria": p.Category,
			"Fecha_Nacimiento": p.BirthDate, "Fecha_Alta": p.RegisteredAt,
			"Estado": string(p.Status), "Email": p.Email, "Telefono": p.Phone,
			roster.FullNameColumn: p.FullName(),
		})
	}
	h.App.writeCSV(w, "jugadores", t)
}
