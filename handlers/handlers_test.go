package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camden-git/clubdash/config"
	"github.com/camden-git/clubdash/database"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/roster"
	"github.com/camden-git/clubdash/sheets"
)

const (
	rosterBook    = "roster-book"
	medicalBook   = "med-book"
	nutritionBook = "nut-book"
	physicalBook  = "phy-book"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	src := config.DefaultSources()
	src.Roster.SpreadsheetID = rosterBook
	src.Medical.SpreadsheetID = medicalBook
	src.Medical.Worksheet = "Respuestas"
	src.Nutrition.SpreadsheetID = nutritionBook
	src.Physical.SpreadsheetID = physicalBook
	return config.Config{
		SheetsDriver:       config.DriverMemory,
		RosterCacheTTL:     time.Minute,
		SheetCacheTTL:      time.Minute,
		ReportCacheTTL:     time.Minute,
		MaxSessions:        8,
		NutritionMaxWeight: 250,
		SyncConfigPath:     filepath.Join(t.TempDir(), "sync_config.json"),
		CORSOrigins:        []string{"http://localhost:5173"},
		Sources:            src,
	}
}

func seed() *sheets.MemoryStore {
	store := sheets.NewMemoryStore()
	store.Put(rosterBook, roster.DefaultWorksheet, [][]string{
		roster.Headers,
		{"30111222", "Juan", "Perez", "Pilar", "Primera", "", "01/02/2024", "Activo", "", ""},
		{"40111333", "Luis", "Díaz", "Wing", "Juveniles M19", "", "01/02/2024", "Activo", "", ""},
	})
	store.Put(medicalBook, "Respuestas", [][]string{
		{"Marca temporal", "DNI", "Nombre", "Categoria", medical.ColCanTrain, medical.ColInjuryType, medical.ColSeverity, "nombre_profesional"},
		{"02/03/2024 10:00:00", "30.111.222", "juan", "primera", "No", "Desgarro", "Grave", "Dra. Gómez"},
		{"03/03/2024 10:00:00", "99999999", "Intruso", "", "Sí", "", "", "Dra. Gómez"},
	})
	store.Put(nutritionBook, "Respuestas de formulario 1", [][]string{
		{"Marca temporal", "Dni", "Nombre completo del jugador", "Peso (kg): [Número con decimales 88,5]", "Objetivo"},
		{"01/02/2024 09:00:00", "30111222", "Juan", "90", "Bajar grasa"},
		{"01/03/2024 09:00:00", "30111222", "Juan", "885", "Bajar grasa"},
	})
	store.Put(physicalBook, "Base Test", [][]string{
		{"Fecha", "DNI", "Nombre y Apellido", "Test", "Subtest", "valor", "unidad"},
		{"05/03/2024", "30111222", "Juan Perez", "Fuerza", "Banco plano", "100", "kg"},
		{"05/03/2024", "40111333", "Luis Díaz", "Fuerza", "Banco plano", "80", "kg"},
		{"05/03/2024", "40111333", "Luis Díaz", "Fuerza", "Banco plano", "90", "kg"},
	})
	return store
}

type fixture struct {
	app    *App
	store  *sheets.MemoryStore
	server http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := seed()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app, err := NewApp(testConfig(t), store, db, nil)
	require.NoError(t, err)
	app.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local) }
	return &fixture{app: app, store: store, server: app.Routes()}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[APIErrorResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	return resp.Errors[0].Code
}

func TestDashboardUnifiedView(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[DashboardResponse](t, rec)
	// two roster rows, one matched medical row, two nutrition rows, three physical rows
	assert.Equal(t, 8, resp.Total)
	assert.Equal(t, []string{"Juveniles M19", "Primera"}, resp.Categories)
	assert.Contains(t, resp.Players, "Juan Perez (DNI: 30111222)")
	assert.Empty(t, resp.Warnings)

	var dropped int
	for _, rep := range resp.Reports {
		if rep.Label == "medica" {
			dropped = rep.Dropped
		}
	}
	assert.Equal(t, 1, dropped)

	for _, row := range resp.Rows {
		if row[reconcile.ProvenanceColumn] == "medica" {
			assert.Equal(t, "30111222", row["DNI"])
			assert.Equal(t, "Primera", row["Categoria"])
		}
	}
}

func TestDashboardFiltersAndSession(t *testing.T) {
	f := newFixture(t)
	first := f.do(t, http.MethodGet, "/api/dashboard?category=Primera&source=nutricion", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 2, decode[DashboardResponse](t, first).Total)

	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionCookie, cookies[0].Name)

	// the session keeps serving the memoized view until refreshed
	f.store.Put(nutritionBook, "Respuestas de formulario 1", [][]string{{"Dni"}})
	cached := f.do(t, http.MethodGet, "/api/dashboard?source=nutricion", nil, cookies...)
	assert.Equal(t, 2, decode[DashboardResponse](t, cached).Total)
	assert.Empty(t, cached.Result().Cookies())

	refreshed := f.do(t, http.MethodGet, "/api/dashboard?source=nutricion&refresh=1", nil, cookies...)
	assert.Equal(t, 0, decode[DashboardResponse](t, refreshed).Total)

	player := f.do(t, http.MethodGet, "/api/dashboard?player="+url.QueryEscape("Luis Díaz (DNI: 40111333)"), nil, cookies...)
	assert.Equal(t, 3, decode[DashboardResponse](t, player).Total)
}

func TestDashboardSourceFailureBecomesWarning(t *testing.T) {
	f := newFixture(t)
	f.store.Fail(nutritionBook, sheets.ErrPermissionDenied)

	rec := f.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DashboardResponse](t, rec)
	require.Len(t, resp.Warnings, 1)
	assert.True(t, strings.HasPrefix(resp.Warnings[0], "nutricion:"))
	assert.Equal(t, 6, resp.Total)
}

func TestDashboardErrors(t *testing.T) {
	f := newFixture(t)
	f.store.Fail(rosterBook, fmt.Errorf("read worksheet Jugadores_Maestro: %w", sheets.ErrRateLimited))
	rec := f.do(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, errorCode(t, rec))

	app, err := NewApp(testConfig(t), sheets.Unavailable{Err: fmt.Errorf("%w: no file", sheets.ErrCredentials)}, nil, nil)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	app.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeCredentials, errorCode(t, rec))
}

func TestWriteErrorKeepsRangeTextOutOfRateLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, zap.NewNop(), fmt.Errorf("update Asistencias!A429:H440: %w", sheets.ErrPermissionDenied))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeSourceUnavailable, errorCode(t, rec))

	rec = httptest.NewRecorder()
	writeError(rec, zap.NewNop(), fmt.Errorf("update Asistencias!A2:H3: %w", sheets.ErrRateLimited))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestDashboardExport(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/dashboard/export?source=fisica", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="unificado_2024-03-05.csv"`)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestAreaPages(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/areas/nutrition", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	nut := decode[AreaResponse](t, rec)
	assert.Equal(t, 2, nut.Records)
	assert.Equal(t, 1, nut.Players)
	require.NotEmpty(t, nut.Metrics)
	assert.Equal(t, "88,5", nut.Metrics[0].Mean)
	assert.Equal(t, 2, nut.Goals["Primera"]["Bajar grasa"])

	rec = f.do(t, http.MethodGet, "/api/areas/physical?test=Fuerza&subtest=Banco%20plano", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	phy := decode[AreaResponse](t, rec)
	require.NotNil(t, phy.Ranking)
	assert.Equal(t, "Juan Perez", phy.Ranking.Top[0].Name)
	assert.Equal(t, []string{"Fuerza"}, phy.Tests)

	rec = f.do(t, http.MethodGet, "/api/areas/medical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	med := decode[AreaResponse](t, rec)
	require.NotNil(t, med.Medical)
	assert.Equal(t, 1, med.Medical.Severe)
	assert.Equal(t, 1, med.ByCategory["PRIMERA"])

	rec = f.do(t, http.MethodGet, "/api/areas/kpi", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayerProfileAndSeries(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/players/30111222", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pr struct {
		Name    string `json:"name"`
		Weight  string `json:"weight"`
		Medical struct {
			Training string `json:"training"`
		} `json:"medical"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, "Juan Perez", pr.Name)
	assert.Equal(t, "88,5 kg", pr.Weight)
	assert.Equal(t, string(medical.TrainingInactive), pr.Medical.Training)

	rec = f.do(t, http.MethodGet, "/api/players/30111222/series", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var series struct {
		Points []struct {
			Value float64 `json:"value"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series.Points, 2)
	assert.Equal(t, 88.5, series.Points[1].Value)

	rec = f.do(t, http.MethodGet, "/api/players/55555555", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/players/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/players/99999999/medical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Intruso")
}

func TestAdminRoster(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/admin/players", map[string]string{
		"dni": "50.222.333", "first_name": "ana maría", "last_name": "lópez",
		"category": "Primera", "position": "Wing", "email": "ANA@Club.org", "birth_day": "02/05/2001",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[roster.Player](t, rec)
	assert.Equal(t, "Ana María", p.FirstName)
	assert.Equal(t, "02/05/2001", p.BirthDate)

	rec = f.do(t, http.MethodPost, "/api/admin/players", map[string]string{"dni": "50222333", "first_name": "x", "last_name": "y"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/players", map[string]string{"dni": "123", "first_name": "x", "last_name": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/admin/players/40111333/status", map[string]string{"status": "injured"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPut, "/api/admin/players/11111111/status", map[string]string{"status": "Activo"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/admin/players?status=Lesionado", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Players []roster.Player `json:"players"`
		Summary roster.Summary  `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Players, 1)
	assert.Equal(t, "40111333", list.Players[0].ID)

	rec = f.do(t, http.MethodGet, "/api/admin/players/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "jugadores_2024-03-05.csv")
}

func TestAttendanceSaveAndReport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/attendance", map[string]interface{}{
		"date": "04/03/2024", "category": "Primera", "activity": "Entrenamiento",
		"entries": []map[string]string{
			{"dni": "30111222", "first_name": "Juan", "last_name": "Perez", "mark": "Presente"},
			{"dni": "40111333", "first_name": "Luis", "last_name": "Díaz", "mark": "Lesionado"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/attendance", map[string]interface{}{"category": "Primera"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/attendance?from=01/03/2024&to=31/03/2024", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Summary struct {
			Total            int     `json:"total"`
			ParticipationPct float64 `json:"participation_pct"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 100.0, report.Summary.ParticipationPct)

	rec = f.do(t, http.MethodGet, "/api/attendance?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMedicalReport(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/medical/reports", map[string]string{
		"professional": "Dra. Gómez", "patient": "Juan Perez", "dni": "30111222",
		"diagnosis": "Esguince", "severity": "moderada", "attended_on": "04/03/2024",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Tratamiento activo")

	rec = f.do(t, http.MethodPost, "/api/medical/reports", map[string]string{"professional": "Dra. Gómez"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/medical/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[medical.Stats](t, rec)
	assert.Equal(t, 2, st.Total)
}

func TestSyncConnections(t *testing.T) {
	f := newFixture(t)
	sheetURL := "https://docs.google.com/spreadsheets/d/" + physicalBook + "/edit"

	rec := f.do(t, http.MethodPost, "/api/sync/test", map[string]string{"url": sheetURL})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Base Test")

	rec = f.do(t, http.MethodPost, "/api/sync/strength", map[string]string{"url": sheetURL, "owner": "Prof. Ruiz"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var conn struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conn))

	// "Nombre y Apellido" maps to no strength field, so nothing is synced
	rec = f.do(t, http.MethodPost, "/api/sync/strength/"+conn.ID+"/run", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/sync/strength", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_rows":0`)

	rec = f.do(t, http.MethodPost, "/api/sync/kpi", map[string]string{"url": sheetURL})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/sync/medical", map[string]string{"url": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/sync/strength/"+conn.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/sync/strength/"+conn.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileRunsAudit(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/dashboard", nil).Code)

	rec := f.do(t, http.MethodGet, "/api/reconcile/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	runs := decode[[]database.ReconcileRun](t, rec)
	require.Len(t, runs, 1)
	assert.Equal(t, database.RunStatusOK, runs[0].Status)
	assert.Len(t, runs[0].Sources, 3)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/reconcile/runs/%d", runs[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	run := decode[database.ReconcileRun](t, rec)
	assert.Equal(t, runs[0].ID, run.ID)
	assert.Equal(t, 8, run.UnifiedRows)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/reconcile/runs/999", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/reconcile/runs/x", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/dashboard", nil)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clubdash_reconcile_rows_total")
}
