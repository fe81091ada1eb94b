// internal/configapi/server.go
package configapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stratus/pkg/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing("stratus-config"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(vr chi.Router) {
		vr.Use(middleware.JWTAuth(a.settings))
		vr.Get("/tenants", a.listTenants)
		vr.Get("/tenants/{tenant}/document", a.getDocument)
		vr.Get("/tenants/{tenant}/names", a.getNames)
		vr.Post("/tenants/{tenant}/query", a.queryDocument)
	})

	return r
}
