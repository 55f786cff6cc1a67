package syncconfig

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/table"
)

// Header aliases per kind. Headers are lower-cased with spaces turned into
// underscores before lookup.
var fieldMaps = map[Kind]map[string]string{
	Medical: {
		"jugador": "player_name", "nombre": "player_name", "player": "player_name",
		"division": "division", "categoria": "division",
		"lesion": "injury_type", "tipo_lesion": "injury_type", "injury": "injury_type",
		"severidad": "severity", "gravedad": "severity",
		"fecha": "date_occurred", "fecha_lesion": "date_occurred",
		"recuperacion": "expected_recovery", "fecha_recuperacion": "expected_recovery",
		"estado": "status", "tratamiento": "treatment",
		"observaciones": "notes", "notas": "notes",
	},
	Nutrition: {
		"jugador": "player_name", "nombre": "player_name",
		"division": "division", "categoria": "division",
		"plan": "plan_type", "tipo_plan": "plan_type",
		"calorias": "calories_target", "proteinas": "protein_target",
		"carbohidratos": "carbs_target", "grasas": "fat_target",
		"peso": "current_weight", "altura": "height",
		"objetivo": "goal", "observaciones": "notes",
	},
	Strength: {
		"jugador": "player_name", "nombre": "player_name",
		"division": "division", "categoria": "division",
		"fecha": "test_date", "test_fecha": "test_date",
		"tipo_test": "test_type", "test_tipo": "test_type", "ejercicio": "test_type",
		"peso": "weight", "kg": "weight",
		"repeticiones": "repetitions", "reps": "repetitions", "series": "series",
		"peso_corporal": "body_weight", "altura": "height",
		"grasa_corporal": "body_fat", "masa_muscular": "muscle_mass",
		"preparador": "tester", "entrenador": "tester", "observaciones": "notes",
	},
	Field: {
		"jugador": "player_name", "nombre": "player_name",
		"division": "division", "categoria": "division",
		"fecha": "test_date", "test_fecha": "test_date",
		"tipo_test": "test_type", "test_tipo": "test_type", "prueba": "test_type",
		"resultado": "result", "tiempo": "result", "distancia": "result", "marca": "result",
		"unidad": "unit", "clima": "weather", "temperatura": "temperature",
		"superficie": "surface", "humedad": "humidity",
		"preparador": "tester", "entrenador": "tester", "observaciones": "notes",
	},
}

// Fields added to every synced record.
const (
	FieldOwner    = "owner"
	FieldSource   = "sync_source"
	FieldSyncedAt = "sync_date"
	FieldURL      = "sheet_url"
)

func headerKey(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// MapRecords renames the columns of raw to the canonical fields of kind,
// keeping rows that name a player. Unmapped columns are dropped.
func MapRecords(k Kind, raw *table.Table) *table.Table {
	fields := fieldMaps[k]
	from := make(map[string]string)
	var cols []string
	seen := make(map[string]bool)
	for _, h := range raw.Columns {
		f, ok := fields[headerKey(h)]
		if !ok {
			continue
		}
		if _, dup := from[f]; !dup {
			from[f] = h
		}
		if !seen[f] {
			seen[f] = true
			cols = append(cols, f)
		}
	}
	out := table.New(cols...)
	if _, ok := from["player_name"]; !ok {
		return out
	}
	for _, r := range raw.Rows {
		if r.Get(from["player_name"]) == "" {
			continue
		}
		row := make(table.Row, len(cols))
		for _, f := range cols {
			row[f] = r.Get(from[f])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Syncer pulls registered sheets through a row store.
type Syncer struct {
	Store  *Store
	Sheets sheets.RowStore
	Logger *zap.Logger

	now func() time.Time
}

func NewSyncer(store *Store, rs sheets.RowStore, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{Store: store, Sheets: rs, Logger: logger, now: time.Now}
}

// Test opens url and returns the spreadsheet title.
func (s *Syncer) Test(ctx context.Context, url string) (string, error) {
	id, err := ExtractSheetID(url)
	if err != nil {
		return "", err
	}
	return s.Sheets.Title(ctx, id)
}

// Worksheets lists the worksheet titles behind url.
func (s *Syncer) Worksheets(ctx context.Context, url string) ([]string, error) {
	id, err := ExtractSheetID(url)
	if err != nil {
		return nil, err
	}
	return s.Sheets.Worksheets(ctx, id)
}

// Sync reads the connection's worksheet, maps it to the kind's fields and
// records the sync time.
func (s *Syncer) Sync(ctx context.Context, k Kind, id string) (*table.Table, Connection, error) {
	c, err := s.Store.Get(k, id)
	if err != nil {
		return nil, Connection{}, err
	}
	raw, err := sheets.ReadTable(ctx, s.Sheets, c.SpreadsheetID, c.Worksheet)
	if err != nil {
		return nil, c, err
	}
	records := MapRecords(k, raw)
	stamp := s.now().UTC().Format(time.RFC3339)
	for _, f := range []string{FieldOwner, FieldSource, FieldSyncedAt, FieldURL} {
		records.AddColumn(f)
	}
	for _, r := range records.Rows {
		r[FieldOwner] = c.Owner
		r[FieldSource] = "Google Sheets"
		r[FieldSyncedAt] = stamp
		r[FieldURL] = c.URL
	}
	c, err = s.Store.MarkSynced(k, id, records.Len())
	if err != nil {
		return nil, c, err
	}
	s.Logger.Info("sheet synced",
		zap.String("kind", string(k)),
		zap.String("spreadsheet", c.SpreadsheetID),
		zap.Int("rows", records.Len()))
	return records, c, nil
}
