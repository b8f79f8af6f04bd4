package handler

import (
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/shop-backend/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/internal/download"
)

// ErrorPagePath is where failed download attempts are redirected, carrying a
// machine-readable reason instead of internal error text.
const ErrorPagePath = "/download-error"

const (
	reasonInvalid     = "invalid"
	reasonAlreadyUsed = "already-used"
	reasonExpired     = "expired"
	reasonServerError = "server-error"
)

// DownloadHandler serves one-time digital downloads.
type DownloadHandler struct {
	tokens  download.Service
	catalog *catalog.Catalog
	dir     string
}

func NewDownloadHandler(tokens download.Service, cat *catalog.Catalog, dir string) *DownloadHandler {
	return &DownloadHandler{tokens: tokens, catalog: cat, dir: dir}
}

func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	tokenStr := chi.URLParam(r, "token")

	tok, err := h.tokens.Validate(r.Context(), tokenStr)
	if err != nil {
		h.redirectWithReason(w, r, reasonForError(err))
		return
	}

	product, ok := h.catalog.Product(tok.ProductID)
	if !ok || product.File == "" {
		log.Error().Int("product_id", tok.ProductID).Msg("handler: no deliverable file for product")
		h.redirectWithReason(w, r, reasonServerError)
		return
	}

	// Check the file is servable before burning the token: a server-side
	// problem must not consume a one-time credential.
	path := filepath.Join(h.dir, product.File)
	if _, err := os.Stat(path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("handler: download file unavailable")
		h.redirectWithReason(w, r, reasonServerError)
		return
	}

	if err := h.tokens.Redeem(r.Context(), tok, clientIP(r)); err != nil {
		h.redirectWithReason(w, r, reasonForError(err))
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+product.File+`"`)
	http.ServeFile(w, r, path)
}

func (h *DownloadHandler) redirectWithReason(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, ErrorPagePath+"?reason="+reason, http.StatusSeeOther)
}

func reasonForError(err error) string {
	switch {
	case errors.Is(err, download.ErrTokenNotFound):
		return reasonInvalid
	case errors.Is(err, download.ErrTokenUsed):
		return reasonAlreadyUsed
	case errors.Is(err, download.ErrTokenExpired):
		return reasonExpired
	default:
		log.Error().Err(err).Msg("handler: download failed")
		return reasonServerError
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
