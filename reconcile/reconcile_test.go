package reconcile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/clubdash/table"
)

func rosterFixture() *table.Table {
	return table.FromGrid([][]string{
		{"DNI", "Nombre y Apellido", "Categoria"},
		{"30111222", "Juan Perez", "Primera"},
		{"30.123.456", " Ana Gómez ", " M19 "},
		{"40111333", "Luis Díaz", "Reserva"},
	})
}

func TestReconcileOverwritesStaleIdentity(t *testing.T) {
	medical := table.FromGrid([][]string{
		{"Dni", "Nombre del Paciente", "Tipo de lesión"},
		{"30.111.222", "J. Perez (antiguo)", "Esguince"},
		{"99999999", "Unknown Player", "Fractura"},
	})

	res, err := Reconcile(rosterFixture(), []Source{{Label: "medica", Table: medical}})
	require.NoError(t, err)

	rows := BySource(res.Table, "medica")
	require.Equal(t, 1, rows.Len())
	got := rows.Rows[0]
	assert.Equal(t, "30111222", got["DNI"])
	assert.Equal(t, "Juan Perez", got["Nombre y Apellido"])
	assert.Equal(t, "Primera", got["Categoria"])
	assert.Equal(t, "Esguince", got["Tipo de lesión"])
	assert.Equal(t, "J. Perez (antiguo)", got["Nombre del Paciente"])
	assert.False(t, res.Table.HasColumn("Dni"))

	require.Len(t, res.Reports, 1)
	assert.Equal(t, SourceReport{
		Label: "medica", Total: 2, Matched: 1, Dropped: 1,
		MatchedBy: MatchIdentifier, IdentifierColumn: "Dni",
	}, res.Reports[0])
}

func TestReconcileRosterCardinality(t *testing.T) {
	nutrition := table.FromGrid([][]string{
		{"DNI", "Peso"},
		{"30123456", "80"},
		{"30123456", "81"},
	})
	res, err := Reconcile(rosterFixture(), []Source{{Label: "nutricion", Table: nutrition}})
	require.NoError(t, err)

	central := BySource(res.Table, RosterLabel)
	assert.Equal(t, 3, central.Len())
	assert.Equal(t, []string{"30111222", "30123456", "40111333"}, central.Values("DNI"))
	assert.Equal(t, "Ana Gómez", central.Rows[1]["Nombre y Apellido"])
	assert.Equal(t, "M19", central.Rows[1]["Categoria"])
	assert.Equal(t, 5, res.Table.Len())
}

func TestReconcileNameFallback(t *testing.T) {
	physical := table.FromGrid([][]string{
		{"Jugador", "Categoría", "Test", "valor"},
		{"  ANA GÓMEZ", "Juveniles", "Bronco", "5:10"},
		{"Nadie", "Primera", "Bronco", "6:00"},
	})
	res, err := Reconcile(rosterFixture(), []Source{{Label: "fisica", Table: physical}})
	require.NoError(t, err)

	rows := BySource(res.Table, "fisica")
	require.Equal(t, 1, rows.Len())
	assert.Equal(t, "30123456", rows.Rows[0]["DNI"])
	assert.Equal(t, "Ana Gómez", rows.Rows[0]["Nombre y Apellido"])
	assert.Equal(t, "M19", rows.Rows[0]["Categoria"])
	assert.NotContains(t, rows.Columns, "Jugador")
	assert.NotContains(t, rows.Columns, "Categoría")
	assert.Equal(t, MatchName, res.Reports[0].MatchedBy)
	assert.Equal(t, 1, res.Reports[0].Dropped)
}

func TestReconcileIdentifierBeatsNameFallback(t *testing.T) {
	src := table.FromGrid([][]string{
		{"DNI", "Nombre"},
		{"30111222", "Juan Perez"},
		{"55555555", "Luis Díaz"},
	})
	res, err := Reconcile(rosterFixture(), []Source{{Label: "medica", Table: src}})
	require.NoError(t, err)
	assert.Equal(t, 1, BySource(res.Table, "medica").Len())
	assert.Equal(t, MatchIdentifier, res.Reports[0].MatchedBy)
}

func TestReconcileSourceWithoutIdentityColumns(t *testing.T) {
	src := table.FromGrid([][]string{{"Peso", "Altura"}, {"80", "180"}})
	res, err := Reconcile(rosterFixture(), []Source{
		{Label: "nutricion", Table: src},
		{Label: "fisica", Table: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Table.Len())
	assert.Equal(t, MatchNone, res.Reports[0].MatchedBy)
	assert.Equal(t, 1, res.Reports[0].Dropped)
	assert.Equal(t, 0, res.Reports[1].Total)
}

func TestReconcileNoAuthoritativeSource(t *testing.T) {
	res, err := Reconcile(table.New("DNI", "Nombre"), nil)
	assert.ErrorIs(t, err, ErrNoAuthoritativeSource)
	assert.Equal(t, 0, res.Table.Len())

	noID := table.FromGrid([][]string{{"Jugador"}, {"Ana"}})
	res, err = Reconcile(noID, []Source{{Label: "medica", Table: rosterFixture()}})
	assert.ErrorIs(t, err, ErrNoAuthoritativeSource)
	assert.Equal(t, 1, res.Table.Len())
	assert.Equal(t, RosterLabel, res.Table.Rows[0][ProvenanceColumn])
}

func TestReconcileEveryAuxRowBelongsToRoster(t *testing.T) {
	roster := rosterFixture()
	src := table.FromGrid([][]string{
		{"Documento", "Nombre"},
		{"30111222", "x"},
		{"1", "y"},
		{"", "z"},
		{"40.111.333", "w"},
	})
	res, err := Reconcile(roster, []Source{{Label: "medica", Table: src}})
	require.NoError(t, err)

	valid := map[string]bool{"30111222": true, "30123456": true, "40111333": true}
	for _, r := range BySource(res.Table, "medica").Rows {
		assert.True(t, valid[r["DNI"]], r["DNI"])
	}
	want := []string{"30111222", "40111333"}
	if diff := cmp.Diff(want, BySource(res.Table, "medica").Values("DNI")); diff != "" {
		t.Errorf("matched ids (-want +got):\n%s", diff)
	}
}
