// Package reconcile joins the authoritative roster with the auxiliary
// medical, nutrition and physical sheets by normalized player identity.
package reconcile

import (
	"errors"

	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/table"
)

const (
	// ProvenanceColumn names the column tagging every unified row with its source.
	ProvenanceColumn = "source_module"
	// RosterLabel is the provenance value of roster rows.
	RosterLabel = "central"
)

// ErrNoAuthoritativeSource is returned when the roster is empty or lacks an
// identifier or name column. The result then carries the roster alone.
var ErrNoAuthoritativeSource = errors.New("roster is empty or has no identifier/name column")

// Source is one auxiliary table to reconcile.
type Source struct {
	Label string
	Table *table.Table
}

// MatchMode tells how a source's rows were tied to the roster.
type MatchMode string

const (
	MatchNone       MatchMode = "none"
	MatchIdentifier MatchMode = "identifier"
	MatchName       MatchMode = "name"
)

// SourceReport describes what happened to one source.
type SourceReport struct {
	Label            string    `json:"label"`
	Total            int       `json:"total"`
	Matched          int       `json:"matched"`
	Dropped          int       `json:"dropped"`
	MatchedBy        MatchMode `json:"matched_by"`
	IdentifierColumn string    `json:"identifier_column,omitempty"`
	NameColumn       string    `json:"name_column,omitempty"`
	Warning          string    `json:"warning,omitempty"`
}

// Result is the unified view plus per-source diagnostics.
type Result struct {
	Table    *table.Table   `json:"table"`
	Roster   RosterColumns  `json:"roster_columns"`
	Reports  []SourceReport `json:"reports"`
	Warnings []string       `json:"warnings,omitempty"`
}

// RosterColumns are the roster's identity columns; unified rows carry
// canonical identity under these names.
type RosterColumns = columns.Resolved

type rosterIndex struct {
	cols     columns.Resolved
	names    map[string]string // id -> canonical name
	cats     map[string]string // id -> canonical category
	byName   map[string]string // name key -> id, first wins
	validIDs map[string]struct{}
}

// Reconcile builds the unified view: the roster first, then every source's
// rows that belong to a roster player, with identity fields rewritten to the
// roster's values. Sources are processed independently; rows of a source
// that match no roster player are dropped and counted in its report.
func Reconcile(roster *table.Table, sources []Source) (*Result, error) {
	if roster.Empty() {
		return &Result{Table: table.New()}, ErrNoAuthoritativeSource
	}
	cols := columns.ResolveAll(roster.Columns)
	if cols.Identifier == "" || cols.Name == "" {
		return &Result{Table: tag(roster.Clone(), RosterLabel), Roster: cols}, ErrNoAuthoritativeSource
	}

	central, idx := indexRoster(roster, cols)
	parts := []*table.Table{central}
	res := &Result{Roster: cols}

	for _, src := range sources {
		kept, report := reconcileSource(src, idx)
		res.Reports = append(res.Reports, report)
		if kept.Len() > 0 {
			parts = append(parts, kept)
		}
	}

	res.Table = table.Concat(parts...)
	return res, nil
}

func indexRoster(roster *table.Table, cols columns.Resolved) (*table.Table, *rosterIndex) {
	central := tag(roster.Clone(), RosterLabel)
	idx := &rosterIndex{
		cols:     cols,
		names:    make(map[string]string, central.Len()),
		cats:     make(map[string]string, central.Len()),
		byName:   make(map[string]string, central.Len()),
		validIDs: make(map[string]struct{}, central.Len()),
	}

	for _, r := range central.Rows {
		id := identity.NormalizeID(r[cols.Identifier])
		r[cols.Identifier] = id
		r[cols.Name] = r.Get(cols.Name)
		if cols.Category != "" {
			r[cols.Category] = r.Get(cols.Category)
		}
		if id == "" {
			continue
		}
		if _, dup := idx.validIDs[id]; !dup {
			idx.names[id] = r[cols.Name]
			if cols.Category != "" {
				idx.cats[id] = r[cols.Category]
			}
		}
		idx.validIDs[id] = struct{}{}
		if key := identity.NameKey(r[cols.Name]); key != "" {
			if _, seen := idx.byName[key]; !seen {
				idx.byName[key] = id
			}
		}
	}
	return central, idx
}

func reconcileSource(src Source, idx *rosterIndex) (*table.Table, SourceReport) {
	report := SourceReport{Label: src.Label, Total: src.Table.Len(), MatchedBy: MatchNone}
	if src.Table.Empty() {
		return nil, report
	}
	cols := columns.ResolveAll(src.Table.Columns)
	report.IdentifierColumn = cols.Identifier
	report.NameColumn = cols.Name

	var kept *table.Table
	ids := make([]string, 0, src.Table.Len())

	if cols.Identifier != "" {
		kept = src.Table.Filter(func(r table.Row) bool {
			_, ok := idx.validIDs[identity.NormalizeID(r[cols.Identifier])]
			return ok
		})
		for _, r := range kept.Rows {
			ids = append(ids, identity.NormalizeID(r[cols.Identifier]))
		}
		if kept.Len() > 0 {
			report.MatchedBy = MatchIdentifier
		}
	}

	if kept.Len() == 0 && cols.Name != "" {
		kept = src.Table.Filter(func(r table.Row) bool {
			_, ok := idx.byName[identity.NameKey(r[cols.Name])]
			return ok
		})
		ids = ids[:0]
		for _, r := range kept.Rows {
			ids = append(ids, idx.byName[identity.NameKey(r[cols.Name])])
		}
		if kept.Len() > 0 {
			report.MatchedBy = MatchName
		}
	}

	report.Matched = kept.Len()
	report.Dropped = report.Total - report.Matched
	if report.Matched == 0 {
		return nil, report
	}

	canonicalize(kept, cols, idx, ids)
	return tag(kept, src.Label), report
}

// canonicalize rewrites identity fields to roster values under the roster's
// column names and drops the source's differently named identity columns.
func canonicalize(t *table.Table, cols columns.Resolved, idx *rosterIndex, ids []string) {
	rc := idx.cols
	for _, own := range []struct{ src, dst string }{
		{cols.Identifier, rc.Identifier},
		{cols.Name, rc.Name},
		{cols.Category, rc.Category},
	} {
		if own.src != "" && own.src != own.dst {
			t.DropColumn(own.src)
		}
	}

	t.AddColumn(rc.Identifier)
	t.AddColumn(rc.Name)
	if rc.Category != "" {
		t.AddColumn(rc.Category)
	}
	for i, r := range t.Rows {
		id := ids[i]
		r[rc.Identifier] = id
		r[rc.Name] = idx.names[id]
		if rc.Category != "" {
			r[rc.Category] = idx.cats[id]
		}
	}
}

func tag(t *table.Table, label string) *table.Table {
	t.AddColumn(ProvenanceColumn)
	for _, r := range t.Rows {
		r[ProvenanceColumn] = label
	}
	return t
}
