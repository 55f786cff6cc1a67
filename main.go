package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/camden-git/clubdash/config"
	"github.com/camden-git/clubdash/database"
	"github.com/camden-git/clubdash/handlers"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/repository"
	"github.com/camden-git/clubdash/roster"
	"github.com/camden-git/clubdash/sheets"
)

var (
	verbose bool
	outPath string
	source  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clubdash",
	Short: "Rugby club dashboard over Google Sheets",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	RunE:  runServe,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Build the unified view once and write it as CSV",
	RunE:  runReconcile,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every configured spreadsheet can be opened",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	reconcileCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the CSV to this file instead of stdout")
	reconcileCmd.Flags().StringVar(&source, "source", "", "Only keep rows of this source label")

	rootCmd.AddCommand(serveCmd, reconcileCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dir := filepath.Dir(cfg.SyncConfigPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create sync config directory %s: %w", dir, err)
		}
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	app, err := handlers.NewApp(cfg, store, db, logger)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	logger.Info("sources configured",
		zap.String("roster", cfg.Sources.Roster.SpreadsheetID),
		zap.String("medical", cfg.Sources.Medical.SpreadsheetID),
		zap.String("nutrition", cfg.Sources.Nutrition.SpreadsheetID),
		zap.String("physical", cfg.Sources.Physical.SpreadsheetID),
		zap.String("driver", cfg.SheetsDriver))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore builds the row store selected by SHEETS_DRIVER, throttled to
// the configured minimum interval. Missing Google credentials do not stop
// the server; every sheet call then reports them.
func openStore(ctx context.Context, cfg config.Config) (sheets.RowStore, error) {
	var store sheets.RowStore
	switch cfg.SheetsDriver {
	case config.DriverLocal:
		gdb, err := database.InitGormDB(cfg.LocalSheetsPath, verbose)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrateModels(gdb); err != nil {
			return nil, err
		}
		store = sheets.NewLocalStore(repository.NewWorksheetRepository(gdb))
	case config.DriverMemory:
		mem := sheets.NewMemoryStore()
		mem.Put(cfg.Sources.Roster.SpreadsheetID, cfg.Sources.Roster.Worksheet, [][]string{roster.Headers})
		store = mem
	default:
		creds, err := sheets.LoadCredentials(cfg.CredentialsJSON, cfg.CredentialsFile)
		if err == nil {
			store, err = sheets.NewGoogleStore(ctx, creds)
		}
		if err != nil {
			logger.Error("spreadsheet credentials unavailable, serving errors until fixed", zap.Error(err))
			return sheets.Unavailable{Err: err}, nil
		}
	}
	return sheets.NewThrottled(store, cfg.SheetsMinInterval), nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	specs := make([]reconcile.SourceSpec, 0, 3)
	for _, s := range cfg.Sources.Auxiliary() {
		specs = append(specs, reconcile.SourceSpec{Label: s.Label, SpreadsheetID: s.SpreadsheetID, Worksheet: s.Worksheet})
	}
	rs := cfg.Sources.Roster
	loader := &reconcile.Loader{
		Store:   store,
		Roster:  roster.NewService(store, rs.SpreadsheetID, rs.Worksheet, 0, logger),
		Sources: specs,
		Logger:  logger,
	}
	res, err := loader.Load(cmd.Context())
	if err != nil && !errors.Is(err, reconcile.ErrNoAuthoritativeSource) {
		return err
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}

	t := res.Table
	if source != "" {
		t = reconcile.BySource(t, source)
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	if err := t.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	logger.Info("unified view written", zap.Int("rows", t.Len()), zap.String("out", outPath))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	failed := 0
	all := append([]config.SourceConfig{cfg.Sources.Roster}, cfg.Sources.Auxiliary()...)
	for _, s := range all {
		title, err := store.Title(cmd.Context(), s.SpreadsheetID)
		if err == nil {
			_, err = sheets.ResolveWorksheet(cmd.Context(), store, s.SpreadsheetID, s.Worksheet)
		}
		if err != nil {
			failed++
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL  %-10s %s\n", s.Label, reconcile.SourceWarning(s.Label, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok    %-10s %s\n", s.Label, title)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sources unavailable", failed, len(all))
	}
	return nil
}
