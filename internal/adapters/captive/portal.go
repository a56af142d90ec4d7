package captive

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/airstrike/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewPortalHandler serves routes on "/" and "/login". Every other path,
// including OS connectivity checks, is answered with 302 to the portal root
// on host (or "/" when host is empty).
func NewPortalHandler(routes ports.PortalRoutes, host string, limiter *middleware.RateLimiter) http.Handler {
	target := "/"
	if host != "" {
		target = "http://" + host + "/"
	}

	r := mux.NewRouter()
	if routes.Root != nil {
		r.HandleFunc("/", routes.Root)
	}
	if routes.Login != nil {
		r.HandleFunc("/login", routes.Login)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, req, target, http.StatusFound)
	})

	var h http.Handler = r
	if limiter != nil {
		h = middleware.RateLimitMiddleware(limiter)(h)
	}
	return otelhttp.NewHandler(h, "captive-portal")
}
