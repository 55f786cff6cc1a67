// Package syncconfig keeps the external sheet connections staff register
// per area and pulls their rows on demand.
package syncconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the area a connection feeds.
type Kind string

const (
	Medical   Kind = "medical"
	Nutrition Kind = "nutrition"
	Strength  Kind = "strength"
	Field     Kind = "field"
)

// Kinds lists every area in display order.
var Kinds = []Kind{Medical, Nutrition, Strength, Field}

var (
	ErrInvalidURL         = errors.New("not a spreadsheet url")
	ErrUnknownKind        = errors.New("unknown connection kind")
	ErrConnectionNotFound = errors.New("connection not found")
)

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Connection is one registered sheet.
type Connection struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	SpreadsheetID string     `json:"spreadsheet_id"`
	Owner         string     `json:"owner"`
	Worksheet     string     `json:"worksheet,omitempty"`
	AddedAt       time.Time  `json:"added_at"`
	LastSync      *time.Time `json:"last_sync,omitempty"`
	LastRows      int        `json:"last_rows"`
}

// File is the on-disk layout.
type File struct {
	Medical   []Connection `json:"medical_sheets"`
	Nutrition []Connection `json:"nutrition_sheets"`
	Strength  []Connection `json:"strength_sheets"`
	Field     []Connection `json:"field_sheets"`
}

func (f *File) list(k Kind) *[]Connection {
	switch k {
	case Medical:
		return &f.Medical
	case Nutrition:
		return &f.Nutrition
	case Strength:
		return &f.Strength
	case Field:
		return &f.Field
	}
	return nil
}

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSheetID returns the spreadsheet id embedded in a sheet url.
func ExtractSheetID(url string) (string, error) {
	m := sheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	return m[1], nil
}

// Store persists connections as a JSON file.
type Store struct {
	Path string

	mu  sync.Mutex
	now func() time.Time
}

func NewStore(path string) *Store {
	return &Store{Path: path, now: time.Now}
}

// Load reads the file. A missing file is an empty configuration.
func (s *Store) Load() (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*File, error) {
	f := &File{}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync config %s: %w", s.Path, err)
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse sync config %s: %w", s.Path, err)
	}
	return f, nil
}

func (s *Store) save(f *File) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create sync config directory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync config: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sync config: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("failed to replace sync config: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(*File) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return s.save(f)
}

// List returns the connections of kind.
func (s *Store) List(k Kind) ([]Connection, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	l := f.list(k)
	if l == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return append([]Connection{}, (*l)...), nil
}

// Get returns one connection.
func (s *Store) Get(k Kind, id string) (Connection, error) {
	conns, err := s.List(k)
	if err != nil {
		return Connection{}, err
	}
	for _, c := range conns {
		if c.ID == id {
			return c, nil
		}
	}
	return Connection{}, ErrConnectionNotFound
}

// Add registers a sheet url under kind.
func (s *Store) Add(k Kind, url, owner, worksheet string) (Connection, error) {
	sheetID, err := ExtractSheetID(url)
	if err != nil {
		return Connection{}, err
	}
	c := Connection{
		ID:            uuid.NewString(),
		URL:           strings.TrimSpace(url),
		SpreadsheetID: sheetID,
		Owner:         strings.TrimSpace(owner),
		Worksheet:     strings.TrimSpace(worksheet),
		AddedAt:       s.now().UTC(),
	}
	err = s.update(func(f *File) error {
		l := f.list(k)
		if l == nil {
			return fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
		*l = append(*l, c)
		return nil
	})
	if err != nil {
		return Connection{}, err
	}
	return c, nil
}

// Remove deletes a connection.
func (s *Store) Remove(k Kind, id string) error {
	return s.update(func(f *File) error {
		l := f.list(k)
		if l == nil {
			return fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
		for i, c := range *l {
			if c.ID == id {
				*l = append((*l)[:i], (*l)[i+1:]...)
				return nil
			}
		}
		return ErrConnectionNotFound
	})
}

// MarkSynced stamps a successful sync.
func (s *Store) MarkSynced(k Kind, id string, rows int) (Connection, error) {
	var out Connection
	err := s.update(func(f *File) error {
		l := f.list(k)
		if l == nil {
			return fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
		for i := range *l {
			if (*l)[i].ID == id {
				at := s.now().UTC()
				(*l)[i].LastSync = &at
				(*l)[i].LastRows = rows
				out = (*l)[i]
				return nil
			}
		}
		return ErrConnectionNotFound
	})
	return out, err
}
