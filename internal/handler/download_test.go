package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/internal/download"
	"github.com/vasiliy-maslov/shop-backend/internal/ledger"
)

func downloadFixture(t *testing.T) (*chi.Mux, download.Service, string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "art-pack.zip"), []byte("zip-bytes"), 0o644))

	cat := catalog.New([]catalog.Product{
		{ID: 2, Name: "Art Pack", UnitPrice: 1000, Digital: true, File: "art-pack.zip"},
		{ID: 9, Name: "Lost Asset", UnitPrice: 1000, Digital: true, File: "missing.zip"},
	})
	tokens := download.NewService(ledger.NewMemoryStore())

	r := chi.NewRouter()
	r.Get("/download/{token}", NewDownloadHandler(tokens, cat, dir).Download)
	return r, tokens, dir
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:51234"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestDownloadHandler_ServesFileOnce(t *testing.T) {
	router, tokens, _ := downloadFixture(t)

	tok, err := tokens.Issue(context.Background(), "anna@example.com", 2, "INV-2026-001")
	require.NoError(t, err)

	rr := get(router, "/download/"+tok.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "zip-bytes", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "art-pack.zip")

	// second attempt hits the burned token
	rr = get(router, "/download/"+tok.Token)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, ErrorPagePath+"?reason=already-used", rr.Header().Get("Location"))
}

func TestDownloadHandler_UnknownToken(t *testing.T) {
	router, _, _ := downloadFixture(t)

	rr := get(router, "/download/definitely-not-a-token")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, ErrorPagePath+"?reason=invalid", rr.Header().Get("Location"))
}

func TestDownloadHandler_MissingFileDoesNotBurnToken(t *testing.T) {
	router, tokens, _ := downloadFixture(t)

	tok, err := tokens.Issue(context.Background(), "anna@example.com", 9, "INV-2026-002")
	require.NoError(t, err)

	rr := get(router, "/download/"+tok.Token)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, ErrorPagePath+"?reason=server-error", rr.Header().Get("Location"))

	// the credential survives the server-side failure
	validated, err := tokens.Validate(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.False(t, validated.Used)
}
