package roster

import (
	"sort"
	"strings"

	"github.com/facette/natsort"
)

// Filter narrows the player list. Empty fields match everything.
type Filter struct {
	Category string
	Position string
	Status   string
}

func (f Filter) match(p Player) bool {
	return matches(f.Category, p.Category) && matches(f.Position, p.Position) && matches(f.Status, string(p.Status))
}

func matches(want, got string) bool {
	want = strings.TrimSpace(want)
	switch want {
	case "", "Todas", "Todos":
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

// Summary counts the filtered players for the admin overview.
type Summary struct {
	Total      int            `json:"total"`
	Active     int            `json:"active"`
	FirstTeam  int            `json:"first_team"`
	Youth      int            `json:"youth"`
	ByCategory map[string]int `json:"by_category"`
}

// Apply filters players and summarizes the result. Players come back in
// natural order of category then full name.
func Apply(players []Player, f Filter) ([]Player, Summary) {
	out := make([]Player, 0, len(players))
	sum := Summary{ByCategory: make(map[string]int)}
	for _, p := range players {
		if !f.match(p) {
			continue
		}
		out = append(out, p)
		sum.Total++
		if p.Status == StatusActive {
			sum.Active++
		}
		if p.Category == "Primera" {
			sum.FirstTeam++
		}
		if strings.Contains(p.Category, "Juveniles") {
			sum.Youth++
		}
		if p.Category != "" {
			sum.ByCategory[p.Category]++
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return natsort.Compare(out[i].Category, out[j].Category)
		}
		return natsort.Compare(out[i].FullName(), out[j].FullName())
	})
	return out, sum
}
