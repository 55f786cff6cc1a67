// Package numeric parses measurement cells typed by hand into spreadsheets,
// accepting both decimal commas and decimal points.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// DefaultWeightBound is the largest plausible body weight in kilograms.
// Larger readings are assumed to have lost their decimal separator.
const DefaultWeightBound = 250

// Parser converts raw cells into numbers. A zero MaxPlausible disables the
// magnitude correction.
type Parser struct {
	MaxPlausible float64
}

// Weight is the parser used for body weight columns.
var Weight = Parser{MaxPlausible: DefaultWeightBound}

// Plain parses without any magnitude correction.
var Plain = Parser{}

var unitReplacer = strings.NewReplacer("kg", "", "cm", "", "%", "", " ", "", "\t", "", " ", "")

// Parse returns the value of raw rounded to one decimal. ok is false when the
// cell holds no usable number, which is distinct from a zero reading.
func (p Parser) Parse(raw any) (float64, bool) {
	var s string
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return p.correct(v), true
	case int:
		return p.correct(float64(v)), true
	case int64:
		return p.correct(float64(v)), true
	case string:
		s = v
	default:
		return 0, false
	}

	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "nan":
		return 0, false
	}

	s = unitReplacer.Replace(strings.ToLower(s))
	if comma := strings.Index(s, ","); comma >= 0 {
		if dot := strings.Index(s, "."); dot >= 0 && dot < comma {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return p.correct(v), true
}

func (p Parser) correct(v float64) float64 {
	if p.MaxPlausible > 0 && v > p.MaxPlausible {
		v /= 10
	}
	return Round1(v)
}

// Parse uses the body weight parser.
func Parse(raw any) (float64, bool) {
	return Weight.Parse(raw)
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatAR renders v with one decimal and a decimal comma, the way the
// club's spreadsheets expect numbers to be written back.
func FormatAR(v float64) string {
	return strings.Replace(strconv.FormatFloat(Round1(v), 'f', 1, 64), ".", ",", 1)
}

// FormatCell formats a raw cell for display, leaving unparseable text untouched.
func FormatCell(raw string) string {
	v, ok := Plain.Parse(raw)
	if !ok {
		return raw
	}
	return FormatAR(v)
}

// Stats summarizes a column of readings.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize parses every value with p and aggregates the usable ones.
func (p Parser) Summarize(values []string) (Stats, bool) {
	var st Stats
	var sum float64
	for _, raw := range values {
		v, ok := p.Parse(raw)
		if !ok {
			continue
		}
		if st.Count == 0 || v < st.Min {
			st.Min = v
		}
		if st.Count == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Count++
	}
	if st.Count == 0 {
		return Stats{}, false
	}
	st.Mean = Round1(sum / float64(st.Count))
	return st, true
}
