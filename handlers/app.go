package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/camden-git/clubdash/attendance"
	"github.com/camden-git/clubdash/cache"
	"github.com/camden-git/clubdash/config"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/profile"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/roster"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/syncconfig"
	"github.com/camden-git/clubdash/table"
)

const unifiedKey = "unified_view"

// App holds the services the pages are served from.
type App struct {
	Cfg        config.Config
	Store      sheets.RowStore
	DB         *sql.DB
	Sessions   *cache.Sessions
	Logger     *zap.Logger
	Roster     *roster.Service
	Attendance *attendance.Service
	Medical    *medical.Service
	Sync       *syncconfig.Syncer

	now func() time.Time
}

// NewApp wires the services over store. db may be nil, which disables the
// reconcile-run audit.
func NewApp(cfg config.Config, store sheets.RowStore, db *sql.DB, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions, err := cache.NewSessions(cfg.MaxSessions)
	if err != nil {
		return nil, err
	}
	src := cfg.Sources
	return &App{
		Cfg:        cfg,
		Store:      store,
		DB:         db,
		Sessions:   sessions,
		Logger:     logger,
		Roster:     roster.NewService(store, src.Roster.SpreadsheetID, src.Roster.Worksheet, cfg.RosterCacheTTL, logger),
		Attendance: attendance.NewService(store, src.Roster.SpreadsheetID, cfg.SheetCacheTTL, cfg.ReportCacheTTL, logger),
		Medical:    medical.NewService(store, src.Medical.SpreadsheetID, src.Medical.Worksheet, cfg.SheetCacheTTL, logger),
		Sync:       syncconfig.NewSyncer(syncconfig.NewStore(cfg.SyncConfigPath), store, logger),
		now:        time.Now,
	}, nil
}

// Routes builds the HTTP router.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   a.Cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	r.Handle("/metrics", promhttp.Handler())

	dashboard := &DashboardHandler{App: a}
	areaHandler := &AreaHandler{App: a}
	players := &PlayerHandler{App: a}
	med := &MedicalHandler{App: a}
	admin := &AdminRosterHandler{App: a}
	att := &AttendanceHandler{App: a}
	syncHandler := &SyncHandler{App: a}
	runs := &RunHandler{App: a}

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware(a.Sessions))

		r.Delete("/session/cache", a.ClearSessionCache)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", dashboard.GetDashboard)
			r.Get("/export", dashboard.ExportDashboard)
		})

		r.Route("/areas/{area}", func(r chi.Router) {
			r.Get("/", areaHandler.GetArea)
			r.Get("/export", areaHandler.ExportArea)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", players.ListPlayers)
			r.Route("/{player}", func(r chi.Router) {
				r.Get("/", players.GetProfile)
				r.Get("/medical", players.GetMedicalHistory)
				r.Get("/series", players.GetSeries)
			})
		})

		r.Route("/medical", func(r chi.Router) {
			r.Get("/stats", med.GetStats)
			r.Post("/reports", med.CreateReport)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/catalogues", admin.GetCatalogues)
			r.Route("/players", func(r chi.Router) {
				r.Get("/", admin.ListPlayers)
				r.Post("/", admin.CreatePlayer)
				r.Get("/export", admin.ExportPlayers)
				r.Put("/{player}/status", admin.UpdateStatus)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", att.GetReport)
			r.Post("/", att.SaveSession)
			r.Get("/export", att.ExportReport)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/", syncHandler.ListAll)
			r.Post("/test", syncHandler.TestConnection)
			r.Route("/{kind}", func(r chi.Router) {
				r.Get("/", syncHandler.List)
				r.Post("/", syncHandler.Add)
				r.Delete("/{connection_id}", syncHandler.Remove)
				r.Post("/{connection_id}/run", syncHandler.Run)
			})
		})

		r.Route("/reconcile/runs", func(r chi.Router) {
			r.Get("/", runs.ListRuns)
			r.Get("/{run_id}", runs.GetRun)
		})
	})

	return r
}

// ClearSessionCache drops everything memoized for the caller's session so
// the next page load reads the sheets again.
func (a *App) ClearSessionCache(w http.ResponseWriter, r *http.Request) {
	sessionCache(r).Clear()
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *App) labels() profile.Labels {
	s := a.Cfg.Sources
	return profile.Labels{Medical: s.Medical.Label, Nutrition: s.Nutrition.Label, Physical: s.Physical.Label}
}

func (a *App) loader(c *cache.Cache) *reconcile.Loader {
	specs := make([]reconcile.SourceSpec, 0, 3)
	for _, s := range a.Cfg.Sources.Auxiliary() {
		specs = append(specs, reconcile.SourceSpec{Label: s.Label, SpreadsheetID: s.SpreadsheetID, Worksheet: s.Worksheet})
	}
	return &reconcile.Loader{
		Store:   a.Store,
		Roster:  a.Roster.WithCache(c),
		Sources: specs,
		Logger:  a.Logger,
		DB:      a.DB,
	}
}

// unified returns the session's reconciled view, rebuilding it when the
// memo expired or ?refresh=1 is passed. A missing roster is not an error;
// the result then carries a warning.
func (a *App) unified(r *http.Request) (*reconcile.Result, error) {
	c := sessionCache(r)
	if r.URL.Query().Get("refresh") == "1" {
		c.Delete(unifiedKey)
	}
	return cache.Memo(c, unifiedKey, a.Cfg.SheetCacheTTL, func() (*reconcile.Result, error) {
		res, err := a.loader(c).Load(r.Context())
		if errors.Is(err, reconcile.ErrNoAuthoritativeSource) {
			return res, nil
		}
		return res, err
	})
}

// writeCSV sends t as an attachment named <entity>_<YYYY-MM-DD>.csv.
func (a *App) writeCSV(w http.ResponseWriter, entity string, t *table.Table) {
	name := fmt.Sprintf("%s_%s.csv", entity, a.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if err := t.WriteCSV(w); err != nil {
		a.Logger.Warn("failed to write csv export", zap.String("entity", entity), zap.Error(err))
	}
}

// filterCategory keeps rows of category in col; empty or "all" selections
// keep everything.
func filterCategory(t *table.Table, col, category string) *table.Table {
	category = strings.TrimSpace(category)
	if col == "" || category == "" || category == reconcile.AllPlayers || category == "Todas" {
		return t
	}
	return t.Equals(col, category)
}
