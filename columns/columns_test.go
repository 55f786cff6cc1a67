package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentifier(t *testing.T) {
	cases := []struct {
		name    string
		headers []string
		want    string
		ok      bool
	}{
		{"padded", []string{" DNI ", "Nombre"}, " DNI ", true},
		{"form question", []string{"Marca temporal", "Por favor completa el DNI"}, "Por favor completa el DNI", true},
		{"synonym priority beats column order", []string{"Cedula", "Documento"}, "Documento", true},
		{"nro", []string{"NRO DNI"}, "NRO DNI", true},
		{"missing", []string{"Peso", "Altura"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Resolve(tc.headers, Identifier)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveName(t *testing.T) {
	got, ok := Resolve([]string{"Nombre", "Nombre y Apellido"}, Name)
	assert.True(t, ok)
	assert.Equal(t, "Nombre y Apellido", got)

	got, ok = Resolve([]string{"JUGADOR"}, Name)
	assert.True(t, ok)
	assert.Equal(t, "JUGADOR", got)
}

func TestResolveCategory(t *testing.T) {
	got, ok := Resolve([]string{"Plantel", "Categoría "}, Category)
	assert.True(t, ok)
	assert.Equal(t, "Categoría ", got)
}

func TestResolveDate(t *testing.T) {
	got, ok := Resolve([]string{"DNI", "Fecha de Atención"}, Date)
	assert.True(t, ok)
	assert.Equal(t, "Fecha de Atención", got)

	got, ok = Resolve([]string{"Fecha de Atención", "Marca temporal"}, Date)
	assert.True(t, ok)
	assert.Equal(t, "Marca temporal", got)

	got, ok = Resolve([]string{"Timestamp"}, Date)
	assert.True(t, ok)
	assert.Equal(t, "Timestamp", got)
}

func TestResolveAll(t *testing.T) {
	res := ResolveAll([]string{"DNI", "Jugador", "Division", "Fecha"})
	assert.Equal(t, Resolved{Identifier: "DNI", Name: "Jugador", Category: "Division", Date: "Fecha"}, res)
}

func TestFindContaining(t *testing.T) {
	headers := []string{"Fecha", "Peso corporal (kg)", "Masa muscular (kg)"}
	got, ok := FindContaining(headers, "masa", "muscular")
	assert.True(t, ok)
	assert.Equal(t, "Masa muscular (kg)", got)

	_, ok = FindContaining(headers, "grasa")
	assert.False(t, ok)
	_, ok = FindContaining(headers)
	assert.False(t, ok)
}
