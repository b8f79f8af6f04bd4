package transport

import (
	"html"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/vasiliy-maslov/shop-backend/internal/handler"
	"github.com/vasiliy-maslov/shop-backend/internal/webhook"
)

const downloadRateLimit = 5

func NewRouter(checkoutH *handler.CheckoutHandler, downloadH *handler.DownloadHandler, webhookH *webhook.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// The webhook route reads the raw body itself; no body-parsing
	// middleware may run ahead of it.
	r.Post("/webhook/provider", webhookH.HandleWebhook)

	r.Post("/create-payment-session", checkoutH.CreatePaymentSession)

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(downloadRateLimit, time.Minute))
		r.Get("/download/{token}", downloadH.Download)
	})

	r.Get(handler.ErrorPagePath, func(w http.ResponseWriter, r *http.Request) {
		reason := html.EscapeString(r.URL.Query().Get("reason"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><p>This download link cannot be used (" + reason + ").</p></body></html>"))
	})

	return r
}
