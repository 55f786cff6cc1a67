package table

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGrid(t *testing.T) {
	tbl := FromGrid([][]string{
		{" DNI ", "Nombre", "Nombre", ""},
		{"1", "Ana"},
		{"", "  ", "", ""},
		{"2", "Luis", "x", "y"},
	})

	assert.Equal(t, []string{" DNI ", "Nombre", "Nombre (2)", "Column 4"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, Row{" DNI ": "1", "Nombre": "Ana", "Nombre (2)": "", "Column 4": ""}, tbl.Rows[0])
	assert.Equal(t, "y", tbl.Rows[1]["Column 4"])
}

func TestConcatOuterUnion(t *testing.T) {
	a := &Table{Columns: []string{"DNI", "Nombre"}, Rows: []Row{{"DNI": "1", "Nombre": "Ana"}}}
	b := &Table{Columns: []string{"DNI", "Peso"}, Rows: []Row{{"DNI": "1", "Peso": "80"}}}

	got := Concat(a, nil, b)
	assert.Equal(t, []string{"DNI", "Nombre", "Peso"}, got.Columns)
	want := [][]string{
		{"DNI", "Nombre", "Peso"},
		{"1", "Ana", ""},
		{"1", "", "80"},
	}
	if diff := cmp.Diff(want, got.Grid()); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}

	got.Rows[0]["Nombre"] = "changed"
	assert.Equal(t, "Ana", a.Rows[0]["Nombre"])
}

func TestFilterAndEquals(t *testing.T) {
	tbl := FromGrid([][]string{{"Cat"}, {"M19"}, {" m19 "}, {"Primera"}})
	assert.Equal(t, 2, tbl.Equals("Cat", "M19").Len())
	assert.Equal(t, 0, (*Table)(nil).Filter(func(Row) bool { return true }).Len())
}

func TestDistinctSortedNatural(t *testing.T) {
	tbl := FromGrid([][]string{{"Cat"}, {"M9"}, {"M11"}, {""}, {"M9"}, {"Primera"}})
	assert.Equal(t, []string{"M9", "M11", "Primera"}, tbl.DistinctSorted("Cat"))
}

func TestDropColumn(t *testing.T) {
	tbl := FromGrid([][]string{{"a", "b", "c"}, {"1", "2", "3"}})
	tbl.DropColumn("b")
	assert.Equal(t, []string{"a", "c"}, tbl.Columns)
	assert.Equal(t, Row{"a": "1", "c": "3"}, tbl.Rows[0])
}

func TestSortByDate(t *testing.T) {
	tbl := FromGrid([][]string{
		{"Fecha", "id"},
		{"01/02/2024", "a"},
		{"garbage", "b"},
		{"15/03/2024 10:22:33", "c"},
		{"2024-01-10", "d"},
	})
	tbl.SortByDate("Fecha", true)
	assert.Equal(t, []string{"c", "a", "d", "b"}, tbl.Values("id"))
}

func TestParseDate(t *testing.T) {
	ts, ok := ParseDate("5/3/2024 9:05:00")
	require.True(t, ok)
	assert.Equal(t, time.March, ts.Month())
	assert.Equal(t, 5, ts.Day())
	assert.Equal(t, 9, ts.Hour())

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("ayer")
	assert.False(t, ok)
}

func TestWriteCSV(t *testing.T) {
	tbl := FromGrid([][]string{{"DNI", "Obs"}, {"1", "dolor, leve"}})
	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "DNI,Obs\n1,\"dolor, leve\"\n", buf.String())
}
