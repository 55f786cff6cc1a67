// Package columns locates semantically meaningful columns in loosely
// structured sheets whose headers vary between forms and staff.
package columns

import "strings"

// Target is the kind of column being looked up.
type Target int

const (
	Identifier Target = iota
	Name
	Category
	Date
)

func (t Target) String() string {
	switch t {
	case Identifier:
		return "identifier"
	case Name:
		return "name"
	case Category:
		return "category"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

type rule struct {
	synonyms []string // compared trimmed and lowercased, in priority order
	contains []string // substring fallback on lowercased headers
	legacy   []string // exact, case-sensitive
}

var rules = map[Target]rule{
	Identifier: {
		synonyms: []string{"dni", "documento", "por favor completa el dni", "nro dni", "cedula"},
		legacy:   []string{"DNI", "Dni", "dni", "Por Favor completa el Dni", "documento"},
	},
	Name: {
		synonyms: []string{"nombre y apellido", "nombre completo del jugador", "jugador", "nombre"},
		legacy:   []string{"Nombre y Apellido", "Nombre completo del jugador", "Jugador", "Nombre", "nombre"},
	},
	Category: {
		synonyms: []string{"categoria", "categoría", "division", "plantel"},
		legacy:   []string{"Categoria", "Categoría", "categoria", "division", "plantel"},
	},
	Date: {
		synonyms: []string{"marca temporal", "fecha"},
		contains: []string{"fecha", "date", "time", "marca"},
		legacy:   []string{"Marca temporal", "Fecha", "fecha", "Timestamp"},
	},
}

// Resolve returns the header in headers that best represents target.
// ok is false when no header qualifies, which callers treat as the feature
// being unavailable for that source.
func Resolve(headers []string, target Target) (string, bool) {
	r, known := rules[target]
	if !known {
		return "", false
	}

	for _, syn := range r.synonyms {
		for _, h := range headers {
			if strings.ToLower(strings.TrimSpace(h)) == syn {
				return h, true
			}
		}
	}
	for _, kw := range r.contains {
		for _, h := range headers {
			if strings.Contains(strings.ToLower(h), kw) {
				return h, true
			}
		}
	}
	for _, lit := range r.legacy {
		for _, h := range headers {
			if h == lit {
				return h, true
			}
		}
	}
	return "", false
}

// Resolved holds the identity columns of one table. Empty fields were not found.
type Resolved struct {
	Identifier string
	Name       string
	Category   string
	Date       string
}

// ResolveAll looks up every target at once.
func ResolveAll(headers []string) Resolved {
	var res Resolved
	res.Identifier, _ = Resolve(headers, Identifier)
	res.Name, _ = Resolve(headers, Name)
	res.Category, _ = Resolve(headers, Category)
	res.Date, _ = Resolve(headers, Date)
	return res
}

// FindContaining returns the first header that contains every keyword,
// compared case-insensitively.
func FindContaining(headers []string, keywords ...string) (string, bool) {
	if len(keywords) == 0 {
		return "", false
	}
	for _, h := range headers {
		lh := strings.ToLower(h)
		all := true
		for _, kw := range keywords {
			if !strings.Contains(lh, strings.ToLower(kw)) {
				all = false
				break
			}
		}
		if all {
			return h, true
		}
	}
	return "", false
}
