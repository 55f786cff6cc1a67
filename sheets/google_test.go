package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type sheetsAPI struct {
	mu     sync.Mutex
	inputs []string
	status int
}

func (a *sheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.inputs = append(a.inputs, r.URL.Query().Get("valueInputOption"))
	status := a.status
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func testGoogleStore(t *testing.T, api *sheetsAPI) *GoogleStore {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	g, err := newGoogleStore(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return g
}

func TestGoogleStoreWritesRawValues(t *testing.T) {
	api := &sheetsAPI{}
	g := testGoogleStore(t, api)
	ctx := context.Background()

	require.NoError(t, g.AppendRows(ctx, "book", "Jugadores_Maestro", [][]string{{"=HYPERLINK(\"x\")", "02/05/2001"}}))
	require.NoError(t, g.UpdateRange(ctx, "book", "Asistencias", "A2:B2", [][]string{{"+54 11", "04/03/2024"}}))

	require.Len(t, api.inputs, 2)
	for _, in := range api.inputs {
		assert.Equal(t, "RAW", in)
	}
}

func TestGoogleStoreClassifiesDeniedUpdate(t *testing.T) {
	g := testGoogleStore(t, &sheetsAPI{status: http.StatusForbidden})
	err := g.UpdateRange(context.Background(), "book", "Asistencias", "A429:H440", [][]string{{"x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.False(t, IsRateLimit(err))
	assert.True(t, strings.Contains(err.Error(), "A429"))
}
