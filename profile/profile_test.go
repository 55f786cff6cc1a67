package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/clubdash/areas"
	"github.com/camden-git/clubdash/medical"
	"github.com/camden-git/clubdash/numeric"
	"github.com/camden-git/clubdash/reconcile"
	"github.com/camden-git/clubdash/table"
)

var labels = Labels{Medical: "medica", Nutrition: "nutricion", Physical: "fisica"}

func unified(t *testing.T) *table.Table {
	t.Helper()
	roster := table.FromGrid([][]string{
		{"DNI", "Nombre y Apellido", "Categoria", "Posicion"},
		{"30111222", "Juan Perez", "Primera", "Pilar"},
		{"40111333", "Luis Díaz", "M19", "Wing"},
	})
	med := table.FromGrid([][]string{
		{"Marca temporal", "Dni", "Nombre", medical.ColCanTrain, medical.ColInjuryType, medical.ColSeverity},
		{"02/03/2024 10:00:00", "30.111.222", "juan", "No", "Desgarro", "Grave"},
	})
	nut := table.FromGrid([][]string{
		{"Marca temporal", "Por favor completa el DNI", "Nombre completo del jugador", areas.ColWeight, "Talla (cm): [Número]", areas.ColFat, areas.ColBMI},
		{"01/02/2024 09:00:00", "30111222", "Juan", "90", "180", "18", "27,8"},
		{"01/03/2024 09:00:00", "30111222", "Juan", "885", "", "17", "27,3"},
	})
	phy := table.FromGrid([][]string{
		{"Fecha", "DNI", "Nombre y Apellido", areas.ColTest, areas.ColSubtest, areas.ColValue, areas.ColUnit},
		{"05/03/2024", "30111222", "Juan Perez", "Fuerza", "Dominadas", "12", "reps"},
	})
	res, err := reconcile.Reconcile(roster, []reconcile.Source{
		{Label: "medica", Table: med},
		{Label: "nutricion", Table: nut},
		{Label: "fisica", Table: phy},
	})
	require.NoError(t, err)
	return res.Table
}

func TestBuild(t *testing.T) {
	pr, err := Build(unified(t), "30.111.222", labels, numeric.Weight)
	require.NoError(t, err)

	assert.Equal(t, "30111222", pr.ID)
	assert.Equal(t, "Juan Perez", pr.Name)
	assert.Equal(t, "Primera", pr.Category)
	assert.Equal(t, "Pilar", pr.Position)
	assert.Equal(t, "88,5 kg", pr.Weight)
	assert.Equal(t, "180,0 cm", pr.Height)
	assert.Equal(t, map[string]int{"central": 1, "medica": 1, "nutricion": 2, "fisica": 1}, pr.Records)

	assert.Equal(t, "12 reps", pr.Physical[1].Result)
	assert.Equal(t, areas.Placeholder, pr.Physical[0].Result)

	assert.Equal(t, medical.TrainingInactive, pr.Medical.Training)
	assert.Equal(t, "Desgarro", pr.Medical.ActiveInjury)

	assert.Equal(t, "88,5 kg", pr.Nutrition.Weight)
	require.Len(t, pr.WeightSeries, 2)
	assert.Equal(t, 90.0, pr.WeightSeries[0].Value)
}

func TestBuildWithoutAuxiliaryRows(t *testing.T) {
	pr, err := Build(unified(t), "40111333", labels, numeric.Weight)
	require.NoError(t, err)
	assert.Equal(t, "Luis Díaz", pr.Name)
	assert.Equal(t, areas.Placeholder, pr.Weight)
	assert.Equal(t, medical.NotAvail, pr.Medical.LastControl)
	assert.Empty(t, pr.WeightSeries)
}

func TestBuildUnknownPlayer(t *testing.T) {
	_, err := Build(unified(t), "123", labels, numeric.Weight)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
