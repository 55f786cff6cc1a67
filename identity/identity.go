// Package identity canonicalizes player identifiers and names so records
// coming from differently maintained spreadsheets can be joined.
package identity

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// MinRosterDigits is the minimum identifier length accepted for new roster entries.
const MinRosterDigits = 7

// NormalizeID reduces a raw identifier cell to its decimal digits.
// Missing, blank or "nan" values yield "". It never panics.
func NormalizeID(v any) (id string) {
	defer func() {
		if r := recover(); r != nil {
			id = ""
		}
	}()

	s := strings.TrimSpace(toString(v))
	if s == "" || strings.EqualFold(s, "nan") {
		return ""
	}
	s = strings.TrimSuffix(s, ".0")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// spreadsheets hand back large numeric ids as floats; keep them out of
// exponent notation so the digits survive.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NameKey is the comparison key used when falling back to name matching.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// IsValidID reports whether a normalized identifier has at least minDigits digits.
func IsValidID(id string, minDigits int) bool {
	return id != "" && len(id) >= minDigits && id == NormalizeID(id)
}
