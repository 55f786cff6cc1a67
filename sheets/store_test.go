package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(1))
	assert.Equal(t, "H", ColumnLetter(8))
	assert.Equal(t, "Z", ColumnLetter(26))
	assert.Equal(t, "AA", ColumnLetter(27))
	assert.Equal(t, "AZ", ColumnLetter(52))
	assert.Equal(t, "", ColumnLetter(0))
}

func TestSpanAndParse(t *testing.T) {
	assert.Equal(t, "A5:H7", Span(5, 1, 3, 8))
	assert.Equal(t, "H2", Cell(2, 8))

	row, col, err := rangeStart("AB12:AC14")
	require.NoError(t, err)
	assert.Equal(t, 12, row)
	assert.Equal(t, 28, col)

	_, _, err = parseCell("12")
	assert.Error(t, err)
	_, _, err = parseCell("A0")
	assert.Error(t, err)
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "'Jugadores_Maestro'!A1", qualify("Jugadores_Maestro", "A1"))
	assert.Equal(t, "'O''Brien'", qualify("O'Brien", ""))
}

func TestResolveWorksheet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Put("book", "Respuestas de formulario 1", nil)
	m.Put("book", "Jugadores Maestro", nil)

	got, err := ResolveWorksheet(ctx, m, "book", "Jugadores Maestro")
	require.NoError(t, err)
	assert.Equal(t, "Jugadores Maestro", got)

	got, err = ResolveWorksheet(ctx, m, "book", "jugadoresmaestro")
	require.NoError(t, err)
	assert.Equal(t, "Jugadores Maestro", got)

	got, err = ResolveWorksheet(ctx, m, "book", "missing")
	require.NoError(t, err)
	assert.Equal(t, "Respuestas de formulario 1", got)

	_, err = ResolveWorksheet(ctx, m, "nope", "x")
	assert.ErrorIs(t, err, ErrSpreadsheetNotFound)
}

func TestMemoryStoreWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Put("book", "Sheet1", [][]string{{"DNI", "Estado"}})

	require.NoError(t, AppendRow(ctx, m, "book", "Sheet1", []string{"1", "Activo"}))
	require.NoError(t, UpdateCell(ctx, m, "book", "Sheet1", 2, 2, "Lesionado"))
	require.NoError(t, m.UpdateRange(ctx, "book", "Sheet1", Span(4, 1, 1, 3), [][]string{{"3", "Activo", "x"}}))

	assert.Equal(t, [][]string{
		{"DNI", "Estado"},
		{"1", "Lesionado"},
		nil,
		{"3", "Activo", "x"},
	}, m.Grid("book", "Sheet1"))

	tbl, err := ReadTable(ctx, m, "book", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	require.NoError(t, m.AddWorksheet(ctx, "book", "Asistencias", []string{"Fecha"}))
	assert.Error(t, m.AddWorksheet(ctx, "book", "Asistencias", nil))
	ok, err := HasWorksheet(ctx, m, "book", "Asistencias")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreFail(t *testing.T) {
	m := NewMemoryStore()
	m.Put("book", "Sheet1", nil)
	m.Fail("book", ErrPermissionDenied)
	_, err := m.ReadGrid(context.Background(), "book", "Sheet1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	m.Fail("book", nil)
	_, err = m.ReadGrid(context.Background(), "book", "Sheet1")
	assert.NoError(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{&googleapi.Error{Code: 429, Message: "Quota exceeded"}, ErrRateLimited},
		{&googleapi.Error{Code: 403, Message: "RATE_LIMIT_EXCEEDED"}, ErrRateLimited},
		{&googleapi.Error{Code: 403, Message: "The caller does not have permission"}, ErrPermissionDenied},
		{&googleapi.Error{Code: 404, Message: "Requested entity was not found."}, ErrSpreadsheetNotFound},
		{&googleapi.Error{Code: 400, Message: "Unable to parse range: 'Hoja'"}, ErrWorksheetNotFound},
		{fmt.Errorf("googleapi: Error 429: too many"), ErrRateLimited},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, classify("read", tc.in), tc.want, tc.in.Error())
	}

	other := errors.New("connection reset")
	err := classify("read", other)
	assert.ErrorIs(t, err, other)
	assert.False(t, IsRateLimit(err))
	assert.Nil(t, classify("read", nil))
}

func TestIsRateLimitIgnoresContextText(t *testing.T) {
	denied := fmt.Errorf("update Asistencias!A429:H440: %w", ErrPermissionDenied)
	assert.False(t, IsRateLimit(denied))
	assert.False(t, IsRateLimit(errors.New("open spreadsheet 1x429abc: spreadsheet not found")))

	assert.True(t, IsRateLimit(fmt.Errorf("read: %w", ErrRateLimited)))
	assert.True(t, IsRateLimit(&googleapi.Error{Code: 429}))
	assert.True(t, IsRateLimit(classify("read", errors.New("googleapi: Error 429: RATE_LIMIT_EXCEEDED"))))

	err := classify("update Hoja!A429:B430", &googleapi.Error{Code: 403, Message: "The caller does not have permission"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, IsRateLimit(err))
}

func TestLoadCredentials(t *testing.T) {
	data, err := LoadCredentials(`{"type":"service_account"}`, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), "service_account")

	_, err = LoadCredentials("", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrCredentials)

	_, err = LoadCredentials("", "")
	assert.ErrorIs(t, err, ErrCredentials)

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	data, err = LoadCredentials("", path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestUnavailable(t *testing.T) {
	u := Unavailable{Err: fmt.Errorf("%w: no file", ErrCredentials)}
	_, err := ReadTable(context.Background(), u, "book", "x")
	assert.ErrorIs(t, err, ErrCredentials)
}

func TestThrottledSpacesCalls(t *testing.T) {
	m := NewMemoryStore()
	m.Put("book", "Sheet1", [][]string{{"a"}})
	th := NewThrottled(m, 50*time.Millisecond)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := th.ReadGrid(ctx, "book", "Sheet1")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestThrottledHonoursContext(t *testing.T) {
	m := NewMemoryStore()
	m.Put("book", "Sheet1", nil)
	th := NewThrottled(m, time.Hour)

	_, err := th.Title(context.Background(), "book")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = th.Title(ctx, "book")
	assert.Error(t, err)
}
