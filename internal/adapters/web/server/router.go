package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/airstrike/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/airstrike/internal/core/services/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	// Rate limiters
	loginLimiter := middleware.NewRateLimiter(5, 1*time.Minute)   // 5 login attempts per minute
	attackLimiter := middleware.NewRateLimiter(30, 1*time.Minute) // 30 lifecycle calls per minute

	var protect func(http.Handler) http.Handler
	if s.AuthService != nil {
		r.Handle("/api/login", middleware.RateLimitMiddleware(loginLimiter)(http.HandlerFunc(s.AuthHandler.HandleLogin))).Methods(http.MethodPost)
		r.HandleFunc("/api/logout", s.AuthHandler.HandleLogout).Methods(http.MethodPost)
		protect = middleware.AuthMiddleware(s.AuthService)
	} else {
		loginLimiter.Close()
		protect = middleware.ActorMiddleware(auth.OperatorActor)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(protect))

	lifecycle := api.NewRoute().Subrouter()
	lifecycle.Use(mux.MiddlewareFunc(middleware.RateLimitMiddleware(attackLimiter)))

	api.HandleFunc("/status", s.AttackHandler.HandleStatus).Methods(http.MethodGet)
	api.HandleFunc("/observations", s.AttackHandler.HandleObservations).Methods(http.MethodGet)

	lifecycle.HandleFunc("/attacks/stop", s.AttackHandler.HandleStop).Methods(http.MethodPost)
	lifecycle.HandleFunc("/attacks/toggle", s.AttackHandler.HandleToggle).Methods(http.MethodPost)
	lifecycle.HandleFunc("/attacks/rickroll/nudge", s.AttackHandler.HandleNudge).Methods(http.MethodPost)
	lifecycle.HandleFunc("/attacks/{type}/start", s.AttackHandler.HandleStart).Methods(http.MethodPost)
	lifecycle.HandleFunc("/attacks/{type}/select", s.AttackHandler.HandleSelect).Methods(http.MethodPost)

	api.HandleFunc("/deauth/targets", s.TargetHandler.HandleAddDeauthTarget).Methods(http.MethodPost)
	api.HandleFunc("/deauth/targets", s.TargetHandler.HandleClearDeauthTargets).Methods(http.MethodDelete)
	api.HandleFunc("/eviltwin/target", s.TargetHandler.HandleSetNetwork).Methods(http.MethodPut)
	api.HandleFunc("/beacon/ssids", s.TargetHandler.HandleAddSSID).Methods(http.MethodPost)
	api.HandleFunc("/beacon/ssids", s.TargetHandler.HandleClearSSIDs).Methods(http.MethodDelete)

	api.HandleFunc("/settings", s.SettingsHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.SettingsHandler.HandleUpdate).Methods(http.MethodPut)

	api.HandleFunc("/probes", s.RecordHandler.HandleProbes).Methods(http.MethodGet)
	api.HandleFunc("/credentials", s.RecordHandler.HandleCredentials).Methods(http.MethodGet)
	api.HandleFunc("/records/count", s.RecordHandler.HandleCounts).Methods(http.MethodGet)
	api.HandleFunc("/report", s.ReportHandler.HandleGenerateReport).Methods(http.MethodGet)

	// Audit Logs
	api.HandleFunc("/audit-logs", s.AuditHandler.HandleGetLogs).Methods(http.MethodGet)

	// WebSocket endpoint (protected)
	r.Handle("/ws", protect(http.HandlerFunc(s.WSManager.HandleWebSocket)))

	// Metrics endpoint (protected - requires authentication)
	r.Handle("/metrics", protect(promhttp.Handler()))

	return r
}
