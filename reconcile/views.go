package reconcile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"

	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/identity"
	"github.com/camden-git/clubdash/table"
)

// AllPlayers is the category selection meaning "no category filter".
const AllPlayers = "Todos los jugadores"

var ignoredCategories = map[string]struct{}{"12": {}, "nan": {}, "None": {}, "": {}, "0": {}}

// Categories lists the categories present in t in natural order, skipping
// placeholder values left by form exports.
func Categories(t *table.Table) []string {
	col, ok := columns.Resolve(t.Columns, columns.Category)
	if !ok {
		return nil
	}
	var out []string
	for _, c := range t.DistinctSorted(col) {
		if _, skip := ignoredCategories[c]; !skip {
			out = append(out, c)
		}
	}
	return out
}

// Selection renders the player picker label.
func Selection(name, id string) string {
	return fmt.Sprintf("%s (DNI: %s)", name, id)
}

var selectionPattern = regexp.MustCompile(`\(DNI: (\d+)\)`)

// ParseSelection extracts the identifier from a picker label produced by
// Selection. Plain identifiers are accepted too.
func ParseSelection(s string) (string, bool) {
	if m := selectionPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if id := identity.NormalizeID(s); id != "" && id == strings.TrimSpace(s) {
		return id, true
	}
	return "", false
}

// PlayersByCategory returns one picker label per distinct identifier in
// category (AllPlayers or "" for no filter), sorted.
func PlayersByCategory(t *table.Table, category string) []string {
	cols := columns.ResolveAll(t.Columns)
	if cols.Name == "" || cols.Identifier == "" {
		return nil
	}
	rows := t
	category = strings.TrimSpace(category)
	if cols.Category != "" && category != "" && category != AllPlayers {
		rows = t.Filter(func(r table.Row) bool { return r.Get(cols.Category) == category })
	}

	seen := make(map[string]string)
	for _, r := range rows.Rows {
		name, id := r.Get(cols.Name), r.Get(cols.Identifier)
		if name == "" || id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = Selection(name, id)
		}
	}
	out := make([]string, 0, len(seen))
	for _, label := range seen {
		out = append(out, label)
	}
	sort.Slice(out, func(i, j int) bool { return natsort.Compare(out[i], out[j]) })
	return out
}

// PlayerRows returns every unified row of one player by normalized identifier.
func PlayerRows(t *table.Table, id string) *table.Table {
	id = identity.NormalizeID(id)
	col, ok := columns.Resolve(t.Columns, columns.Identifier)
	if !ok || id == "" {
		return table.New(t.Columns...)
	}
	return t.Filter(func(r table.Row) bool { return identity.NormalizeID(r[col]) == id })
}

// BySource returns the rows tagged with label.
func BySource(t *table.Table, label string) *table.Table {
	return t.Filter(func(r table.Row) bool { return r[ProvenanceColumn] == label })
}

var latestDateColumns = []string{"Marca temporal", "Fecha", "fecha", "Timestamp"}

// LatestPerPlayer keeps each player's most recent row by normalized
// identifier. Rows with unparseable dates count as the earliest; equal dates
// keep the later row. Tables without an identifier or date column are
// returned unchanged.
func LatestPerPlayer(t *table.Table) *table.Table {
	if t.Empty() {
		return t
	}
	idCol, ok := columns.Resolve(t.Columns, columns.Identifier)
	if !ok {
		return t
	}
	dateCol := ""
	for _, c := range latestDateColumns {
		if t.HasColumn(c) {
			dateCol = c
			break
		}
	}
	if dateCol == "" {
		return t
	}

	type pick struct {
		at  time.Time
		pos int
	}
	best := make(map[string]pick)
	var order []string
	for i, r := range t.Rows {
		id := identity.NormalizeID(r[idCol])
		at, _ := table.ParseDate(r[dateCol])
		cur, seen := best[id]
		if !seen {
			order = append(order, id)
		}
		if !seen || !at.Before(cur.at) {
			best[id] = pick{at: at, pos: i}
		}
	}

	out := table.New(t.Columns...)
	for _, id := range order {
		r := t.Rows[best[id].pos]
		row := make(table.Row, len(r))
		for k, v := range r {
			row[k] = v
		}
		row[idCol] = id
		out.Rows = append(out.Rows, row)
	}
	out.SortByDate(dateCol, false)
	return out
}
