package identity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"dotted", "30.123.456", "30123456"},
		{"float text", "30123456.0", "30123456"},
		{"spaced", " 30 123 456 ", "30123456"},
		{"nan", "nan", ""},
		{"nan upper", "NaN", ""},
		{"nil", nil, ""},
		{"blank", "   ", ""},
		{"no digits", "abc", ""},
		{"float value", 30123456.0, "30123456"},
		{"float nan", math.NaN(), ""},
		{"int", 40111222, "40111222"},
		{"dash", "30-123-456", "30123456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeID(tc.in))
		})
	}
}

func TestNormalizeIDIdempotent(t *testing.T) {
	for _, in := range []string{"30.123.456", "DNI 12345678", " 7.0", "", "x1y2z3"} {
		once := NormalizeID(in)
		assert.Equal(t, once, NormalizeID(once), in)
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, NameKey("  Juan PÉREZ "), NameKey("juan pérez"))
	assert.NotEqual(t, NameKey("Juan Perez"), NameKey("Juan Pérez"))
	assert.Equal(t, "", NameKey("   "))
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("1234567", MinRosterDigits))
	assert.False(t, IsValidID("123456", MinRosterDigits))
	assert.False(t, IsValidID("12.345.678", MinRosterDigits))
	assert.False(t, IsValidID("", MinRosterDigits))
}
