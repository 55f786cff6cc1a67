package areas

import (
	"sort"
	"strings"

	"github.com/facette/natsort"

	"github.com/camden-git/clubdash/columns"
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/table"
)

// Column names of the physical test sheet.
const (
	ColTest    = "Test"
	ColSubtest = "Subtest"
	ColValue   = "valor"
	ColUnit    = "unidad"
)

// Tests lists the distinct test names.
func Tests(t *table.Table) []string {
	if !t.HasColumn(ColTest) {
		return nil
	}
	return t.DistinctSorted(ColTest)
}

// Subtests lists the distinct subtests of test.
func Subtests(t *table.Table, test string) []string {
	if !t.HasColumn(ColSubtest) {
		return nil
	}
	return filterTest(t, test, "").DistinctSorted(ColSubtest)
}

func filterTest(t *table.Table, test, subtest string) *table.Table {
	return t.Filter(func(r table.Row) bool {
		if test != "" && !strings.EqualFold(r.Get(ColTest), test) {
			return false
		}
		return subtest == "" || strings.EqualFold(r.Get(ColSubtest), subtest)
	})
}

// Ranked is a player's average result in a test.
type Ranked struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// Ranking is the leaderboard of one test.
type Ranking struct {
	Test    string        `json:"test"`
	Subtest string        `json:"subtest,omitempty"`
	Unit    string        `json:"unit,omitempty"`
	Stats   numeric.Stats `json:"stats"`
	Top     []Ranked      `json:"top"`
	Bottom  []Ranked      `json:"bottom"`
}

// RankSize is how many players the top and bottom lists hold.
const RankSize = 3

// Rank averages each player's results in test/subtest and returns the best
// and worst RankSize players, highest value first. Fewer than RankSize
// readings produce stats but no lists.
func Rank(t *table.Table, test, subtest string) Ranking {
	rk := Ranking{Test: test, Subtest: subtest, Top: []Ranked{}, Bottom: []Ranked{}}
	nameCol, ok := columns.Resolve(t.Columns, columns.Name)
	if !ok || !t.HasColumn(ColValue) {
		return rk
	}
	rows := filterTest(t, test, subtest)
	if rows.Empty() {
		return rk
	}
	rk.Unit = rows.Rows[0].Get(ColUnit)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	var vals []string
	for _, r := range rows.Rows {
		v, ok := numeric.Plain.Parse(r[ColValue])
		name := r.Get(nameCol)
		if !ok || name == "" {
			continue
		}
		sums[name] += v
		counts[name]++
		vals = append(vals, r[ColValue])
	}
	rk.Stats, _ = numeric.Plain.Summarize(vals)
	if len(vals) < RankSize {
		return rk
	}

	avg := make([]Ranked, 0, len(sums))
	for name, s := range sums {
		v := numeric.Round1(s / float64(counts[name]))
		avg = append(avg, Ranked{Name: name, Value: v, Text: FormatResult(numeric.FormatAR(v), rk.Unit)})
	}
	sort.Slice(avg, func(i, j int) bool {
		if avg[i].Value != avg[j].Value {
			return avg[i].Value > avg[j].Value
		}
		return natsort.Compare(avg[i].Name, avg[j].Name)
	})
	n := RankSize
	if len(avg) < n {
		n = len(avg)
	}
	rk.Top = append(rk.Top, avg[:n]...)
	for i := len(avg) - 1; i >= len(avg)-n; i-- {
		rk.Bottom = append(rk.Bottom, avg[i])
	}
	return rk
}

// FormatResult attaches unit to value the way test results are displayed.
func FormatResult(value, unit string) string {
	unit = strings.TrimSpace(unit)
	lu := strings.ToLower(unit)
	switch {
	case unit == `"`:
		return value + `"`
	case lu == "kg", lu == "s":
		return value + " " + lu
	case strings.Contains(lu, "km/h"):
		return value + " km/h"
	case unit != "":
		return value + " " + unit
	}
	return value
}

// Highlight is one headline test result of a player profile.
type Highlight struct {
	Label  string `json:"label"`
	Result string `json:"result"`
}

type highlightRule struct {
	label    string
	keywords []string
}

var highlightRules = []highlightRule{
	{"Banco Plano", []string{"banco plano", "pecho", "banca"}},
	{"Dominadas", []string{"dominadas", "pullup", "pull up"}},
	{"Test Bronco", []string{"bronco"}},
}

// Highlights picks the first result matching each headline test, checking
// the subtest before the test name. Missing results show Placeholder.
func Highlights(t *table.Table) []Highlight {
	out := make([]Highlight, 0, len(highlightRules))
	usable := t.HasColumn(ColTest) && t.HasColumn(ColValue)
	for _, rule := range highlightRules {
		h := Highlight{Label: rule.label, Result: Placeholder}
		if usable {
			for _, r := range t.Rows {
				if !containsAny(strings.ToLower(r.Get(ColSubtest)), rule.keywords) &&
					!containsAny(strings.ToLower(r.Get(ColTest)), rule.keywords) {
					continue
				}
				v := r.Get(ColValue)
				if v == "" {
					v = "N/A"
				}
				h.Result = FormatResult(v, r.Get(ColUnit))
				break
			}
		}
		out = append(out, h)
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
