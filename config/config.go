package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/camden-git/clubdash/areas"
	"github.com/camden-git/clubdash/numeric"
)

// Sheets drivers.
const (
	DriverGoogle = "google"
	DriverLocal  = "local"
	DriverMemory = "memory"
)

const (
	defaultPort            = "8080"
	defaultCredentialsFile = "credentials/service_account.json"
	defaultMaxSessions     = 512
)

type Config struct {
	Port string

	// reconcile-run audit database
	DatabasePath string

	// row store
	SheetsDriver      string
	LocalSheetsPath   string
	CredentialsJSON   string
	CredentialsFile   string
	SheetsMinInterval time.Duration

	// per-session memoization
	RosterCacheTTL time.Duration
	SheetCacheTTL  time.Duration
	ReportCacheTTL time.Duration
	MaxSessions    int

	NutritionMaxWeight float64
	SyncConfigPath     string
	CORSOrigins        []string

	SourcesFile string
	Sources     Sources
}

// WeightParser is the parser for body weight readings.
func (c Config) WeightParser() numeric.Parser {
	return numeric.Parser{MaxPlausible: c.NutritionMaxWeight}
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		zap.L().Warn("invalid integer setting, using default",
			zap.String("var", envVar), zap.String("value", valStr), zap.Int("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return val
}

// getEnvFloatOrDefault accepts zero, which disables features such as the
// weight magnitude correction.
func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 {
		zap.L().Warn("invalid number setting, using default",
			zap.String("var", envVar), zap.String("value", valStr), zap.Float64("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return val
}

// getEnvDurationOrDefault reads Go durations ("1s", "5m"). Zero is allowed.
func getEnvDurationOrDefault(envVar string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val < 0 {
		zap.L().Warn("invalid duration setting, using default",
			zap.String("var", envVar), zap.String("value", valStr), zap.Duration("default", defaultVal), zap.Error(err))
		return defaultVal
	}
	return val
}

func getEnvListOrDefault(envVar string, defaultVal []string) []string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	driver := strings.ToLower(getEnvOrDefault("SHEETS_DRIVER", DriverGoogle))
	switch driver {
	case DriverGoogle, DriverLocal, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown SHEETS_DRIVER %q", driver)
	}

	syncPath, err := filepath.Abs(getEnvOrDefault("SYNC_CONFIG_PATH", filepath.Join("data", "sync_config.json")))
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for sync config: %w", err)
	}

	cfg := Config{
		Port:               getEnvOrDefault("PORT", defaultPort),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", "clubdash.db"),
		SheetsDriver:       driver,
		LocalSheetsPath:    getEnvOrDefault("LOCAL_SHEETS_DB", "sheets.db"),
		CredentialsJSON:    os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		CredentialsFile:    getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", defaultCredentialsFile),
		SheetsMinInterval:  getEnvDurationOrDefault("SHEETS_MIN_INTERVAL", time.Second),
		RosterCacheTTL:     getEnvDurationOrDefault("ROSTER_CACHE_TTL", 5*time.Minute),
		SheetCacheTTL:      getEnvDurationOrDefault("SHEET_CACHE_TTL", 5*time.Minute),
		ReportCacheTTL:     getEnvDurationOrDefault("REPORT_CACHE_TTL", 2*time.Minute),
		MaxSessions:        getEnvIntOrDefault("MAX_SESSIONS", defaultMaxSessions),
		NutritionMaxWeight: getEnvFloatOrDefault("NUTRITION_MAX_WEIGHT", numeric.DefaultWeightBound),
		SyncConfigPath:     syncPath,
		CORSOrigins:        getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		SourcesFile:        os.Getenv("SOURCES_FILE"),
	}

	sources, err := LoadSources(cfg.SourcesFile)
	if err != nil {
		return Config{}, err
	}
	cfg.Sources = sources.withEnv()
	return cfg, nil
}

// SourceConfig locates one spreadsheet.
type SourceConfig struct {
	Label         string         `yaml:"label"`
	SpreadsheetID string         `yaml:"spreadsheet_id"`
	Worksheet     string         `yaml:"worksheet"`
	Metrics       []areas.Metric `yaml:"metrics"`
}

// Sources are the roster plus the auxiliary area sheets.
type Sources struct {
	Roster    SourceConfig `yaml:"roster"`
	Medical   SourceConfig `yaml:"medical"`
	Nutrition SourceConfig `yaml:"nutrition"`
	Physical  SourceConfig `yaml:"physical"`
}

// Auxiliary lists the non-roster sources in reconciliation order.
func (s Sources) Auxiliary() []SourceConfig {
	return []SourceConfig{s.Medical, s.Nutrition, s.Physical}
}

// DefaultSources are the club's production sheets.
func DefaultSources() Sources {
	return Sources{
		Roster: SourceConfig{
			Label:         "central",
			SpreadsheetID: "1Lb-ngyjQQH-CFrrLJMvaVrknTWoGliEyr1-tZAFtQuw",
			Worksheet:     "Jugadores_Maestro",
		},
		Medical: SourceConfig{
			Label:         "medica",
			SpreadsheetID: "1ham2WSMQa3eEv0V0TtHcAa55R3WLGoBje6pSOoNxcBQ",
		},
		Nutrition: SourceConfig{
			Label:         "nutricion",
			SpreadsheetID: "1CpAklgxgcVJrIWRWt-yJW4u6EkTcIeQqqp87kllsUqo",
			Worksheet:     "Respuestas de formulario 1",
			Metrics: []areas.Metric{
				{Label: "Peso", Keywords: []string{"peso", "kg"}, Unit: "kg", Correct: true},
				{Label: "Talla", Keywords: []string{"talla"}, Unit: "cm"},
				{Label: "% Grasa", Keywords: []string{"grasa"}, Unit: "%"},
				{Label: "IMC", Keywords: []string{"imc"}},
			},
		},
		Physical: SourceConfig{
			Label:         "fisica",
			SpreadsheetID: "1sR4wWsA0_nZGS011d6QV84znTnRW4d7iS65y2oBjvYI",
			Worksheet:     "Base Test",
		},
	}
}

// LoadSources reads a YAML sources file over the defaults. An empty path
// or a missing file yields the defaults.
func LoadSources(path string) (Sources, error) {
	s := DefaultSources()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Warn("sources file not found, using defaults", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return Sources{}, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Sources{}, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}
	return s, nil
}

func (s Sources) withEnv() Sources {
	s.Roster.SpreadsheetID = getEnvOrDefault("ROSTER_SHEET_ID", s.Roster.SpreadsheetID)
	s.Medical.SpreadsheetID = getEnvOrDefault("MEDICAL_SHEET_ID", s.Medical.SpreadsheetID)
	s.Nutrition.SpreadsheetID = getEnvOrDefault("NUTRITION_SHEET_ID", s.Nutrition.SpreadsheetID)
	s.Physical.SpreadsheetID = getEnvOrDefault("PHYSICAL_SHEET_ID", s.Physical.SpreadsheetID)
	return s
}
