// Package roster manages the master player sheet, the authoritative source
// of player identity.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/camden-git/clubdash/cache"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/sheets"
	"github.com/camden-git/clubdash/table"
)

const (
	DefaultWorksheet = "Jugadores_Maestro"
	// FullNameColumn is derived from first and last name when reading.
	FullNameColumn = "Nombre y Apellido"

	colID           = "DNI"
	colFirstName    = "Nombre"
	colLastName     = "Apellido"
	colPosition     = "Posicion"
	colCategory     = "Categoria"
	colBirthDate    = "Fecha_Nacimiento"
	colRegisteredAt = "Fecha_Alta"
	colStatus       = "Estado"
	colEmail        = "Email"
	colPhone        = "Telefono"

	statusColumn = 8
	cacheKey     = "roster_table"
)

// Headers is the column layout of the master sheet.
var Headers = []string{
	colID, colFirstName, colLastName, colPosition, colCategory,
	colBirthDate, colRegisteredAt, colStatus, colEmail, colPhone,
}

var Divisions = []string{
	"Primera", "Reserva", "Juveniles M19", "Juveniles M17",
	"Juveniles M15", "Infantiles M13", "Infantiles M11",
}

var Positions = []string{
	"Pilar", "Hooker", "Segunda Línea", "Tercera Línea",
	"Medio Scrum", "Apertura", "Centro", "Wing", "Fullback",
}

var (
	ErrDuplicateID    = errors.New("a player with this DNI already exists")
	ErrInvalidID      = fmt.Errorf("DNI must have at least %d digits", identity.MinRosterDigits)
	ErrMissingField   = errors.New("missing required field")
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidStatus  = errors.New("invalid player status")
)

// Status is a player's administrative state.
type Status string

const (
	StatusActive    Status = "Activo"
	StatusInactive  Status = "Inactivo"
	StatusInjured   Status = "Lesionado"
	StatusSuspended Status = "Suspendido"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusActive, StatusInactive, StatusInjured, StatusSuspended}

// ParseStatus accepts the sheet value or its English name, ignoring case.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	aliases := map[string]Status{
		"active": StatusActive, "inactive": StatusInactive,
		"injured": StatusInjured, "suspended": StatusSuspended,
	}
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	if st, ok := aliases[strings.ToLower(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Player is one row of the master sheet.
type Player struct {
	ID           string `json:"dni"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Position     string `json:"position"`
	Category     string `json:"category"`
	BirthDate    string `json:"birth_date"`
	RegisteredAt string `json:"registered_at"`
	Status       Status `json:"status"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// FullName joins first and last name.
func (p Player) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// NewPlayer is the admin form for registering a player.
type NewPlayer struct {
	ID        string    `json:"dni"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Position  string    `json:"position"`
	Category  string    `json:"category"`
	BirthDate time.Time `json:"birth_date"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
}

// Service reads and writes the master sheet. Copies made with WithCache
// share the store but memoize into a session's cache.
type Service struct {
	Store         sheets.RowStore
	SpreadsheetID string
	Worksheet     string
	TTL           time.Duration
	Logger        *zap.Logger

	cache *cache.Cache
	now   func() time.Time
}

// NewService builds a roster service over store.
func NewService(store sheets.RowStore, spreadsheetID, worksheet string, ttl time.Duration, logger *zap.Logger) *Service {
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Store:         store,
		SpreadsheetID: spreadsheetID,
		Worksheet:     worksheet,
		TTL:           ttl,
		Logger:        logger,
		now:           time.Now,
	}
}

// WithCache returns a copy of s that memoizes reads into c.
func (s *Service) WithCache(c *cache.Cache) *Service {
	cp := *s
	cp.cache = c
	return &cp
}

// Table returns the master sheet with the derived full-name column.
func (s *Service) Table(ctx context.Context) (*table.Table, error) {
	t, err := cache.Memo(s.cache, cacheKey, s.TTL, func() (*table.Table, error) {
		t, err := sheets.ReadTable(ctx, s.Store, s.SpreadsheetID, s.Worksheet)
		if err != nil {
			return nil, err
		}
		if t.HasColumn(colFirstName) && t.HasColumn(colLastName) {
			t.AddColumn(FullNameColumn)
			for _, r := range t.Rows {
				r[FullNameColumn] = strings.TrimSpace(r.Get(colFirstName) + " " + r.Get(colLastName))
			}
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// Players returns every player in sheet order.
func (s *Service) Players(ctx context.Context) ([]Player, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	players := make([]Player, 0, t.Len())
	for _, r := range t.Rows {
		players = append(players, Player{
			ID:           identity.NormalizeID(r[colID]),
			FirstName:    r.Get(colFirstName),
			LastName:     r.Get(colLastName),
			Position:     r.Get(colPosition),
			Category:     r.Get(colCategory),
			BirthDate:    r.Get(colBirthDate),
			RegisteredAt: r.Get(colRegisteredAt),
			Status:       Status(r.Get(colStatus)),
			Email:        r.Get(colEmail),
			Phone:        r.Get(colPhone),
		})
	}
	return players, nil
}

// Exists reports whether id is already registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	players, err := s.Players(ctx)
	if err != nil {
		return false, err
	}
	id = identity.NormalizeID(id)
	for _, p := range players {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// EnsureWorksheet creates the master worksheet with its headers when missing.
func (s *Service) EnsureWorksheet(ctx context.Context) error {
	ok, err := sheets.HasWorksheet(ctx, s.Store, s.SpreadsheetID, s.Worksheet)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.Logger.Info("creating roster worksheet", zap.String("worksheet", s.Worksheet))
	if err := s.Store.AddWorksheet(ctx, s.SpreadsheetID, s.Worksheet, Headers); err != nil {
		return fmt.Errorf("failed to create roster worksheet: %w", err)
	}
	return nil
}

// Validate checks a registration and returns it normalized: digits-only DNI,
// title-cased names, lower-cased email.
func Validate(np NewPlayer) (NewPlayer, error) {
	np.ID = identity.NormalizeID(np.ID)
	np.FirstName = titleCase(np.FirstName)
	np.LastName = titleCase(np.LastName)
	np.Email = strings.ToLower(strings.TrimSpace(np.Email))
	np.Phone = strings.TrimSpace(np.Phone)
	np.Position = strings.TrimSpace(np.Position)
	np.Category = strings.TrimSpace(np.Category)

	switch {
	case np.ID == "":
		return np, fmt.Errorf("%w: dni", ErrMissingField)
	case np.FirstName == "":
		return np, fmt.Errorf("%w: first_name", ErrMissingField)
	case np.LastName == "":
		return np, fmt.Errorf("%w: last_name", ErrMissingField)
	case !identity.IsValidID(np.ID, identity.MinRosterDigits):
		return np, ErrInvalidID
	}
	return np, nil
}

func titleCase(s string) string {
	return cases.Title(language.Spanish).String(strings.Join(strings.Fields(s), " "))
}

// Add registers a new active player.
func (s *Service) Add(ctx context.Context, np NewPlayer) (Player, error) {
	np, err := Validate(np)
	if err != nil {
		return Player{}, err
	}
	if err := s.EnsureWorksheet(ctx); err != nil {
		return Player{}, err
	}
	exists, err := s.Exists(ctx, np.ID)
	if err != nil {
		return Player{}, err
	}
	if exists {
		return Player{}, fmt.Errorf("%w: %s", ErrDuplicateID, np.ID)
	}

	p := Player{
		ID:           np.ID,
		FirstName:    np.FirstName,
		LastName:     np.LastName,
		Position:     np.Position,
		Category:     np.Category,
		RegisteredAt: s.now().Format(table.DayLayout),
		Status:       StatusActive,
		Email:        np.Email,
		Phone:        np.Phone,
	}
	if !np.BirthDate.IsZero() {
		p.BirthDate = np.BirthDate.Format(table.DayLayout)
	}
	row := []string{
		p.ID, p.FirstName, p.LastName, p.Position, p.Category,
		p.BirthDate, p.RegisteredAt, string(p.Status), p.Email, p.Phone,
	}
	if err := sheets.AppendRow(ctx, s.Store, s.SpreadsheetID, s.Worksheet, row); err != nil {
		return Player{}, fmt.Errorf("failed to add player %s: %w", p.ID, err)
	}
	s.cache.Delete(cacheKey)
	s.Logger.Info("player added", zap.String("dni", p.ID), zap.String("category", p.Category))
	return p, nil
}

// UpdateStatus sets the status of the player with id.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	id = identity.NormalizeID(id)
	ws, err := sheets.ResolveWorksheet(ctx, s.Store, s.SpreadsheetID, s.Worksheet)
	if err != nil {
		return err
	}
	grid, err := s.Store.ReadGrid(ctx, s.SpreadsheetID, ws)
	if err != nil {
		return err
	}
	for i := 1; i < len(grid); i++ {
		if len(grid[i]) == 0 || id == "" || identity.NormalizeID(grid[i][0]) != id {
			continue
		}
		if err := sheets.UpdateCell(ctx, s.Store, s.SpreadsheetID, ws, i+1, statusColumn, string(status)); err != nil {
			return fmt.Errorf("failed to update status of %s: %w", id, err)
		}
		s.cache.Delete(cacheKey)
		s.Logger.Info("player status updated", zap.String("dni", id), zap.String("status", string(status)))
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
}
