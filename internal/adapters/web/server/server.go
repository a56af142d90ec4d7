package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/reporting"
	"github.com/lcalzada-xor/airstrike/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/airstrike/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server handles HTTP and WebSocket connections of the control API.
type Server struct {
	Addr string
	// AuthService is nil when the API runs without an operator password.
	AuthService ports.AuthService
	WSManager   *websocket.WSManager

	AttackHandler   *handlers.AttackHandler
	TargetHandler   *handlers.TargetHandler
	SettingsHandler *handlers.SettingsHandler
	RecordHandler   *handlers.RecordHandler
	ReportHandler   *handlers.ReportHandler
	AuditHandler    *handlers.AuditHandler
	AuthHandler     *handlers.AuthHandler

	srv *http.Server
}

// Deps are the services the control API consumes.
type Deps struct {
	Attacks  ports.AttackService
	Settings ports.SettingsStore
	Records  handlers.RecordStore
	Audit    ports.AuditService
	Auth     ports.AuthService
	Reports  *reporting.PDFExporter
	// AllowedOrigins extends the websocket same-origin check.
	AllowedOrigins []string
}

// NewServer creates a new web server.
func NewServer(addr string, d Deps) *Server {
	s := &Server{
		Addr:            addr,
		AuthService:     d.Auth,
		WSManager:       websocket.NewWSManager(d.Attacks, d.AllowedOrigins...),
		AttackHandler:   handlers.NewAttackHandler(d.Attacks),
		TargetHandler:   handlers.NewTargetHandler(d.Attacks),
		SettingsHandler: handlers.NewSettingsHandler(d.Settings, d.Audit),
		RecordHandler:   handlers.NewRecordHandler(d.Records),
		ReportHandler:   handlers.NewReportHandler(d.Attacks, d.Records, d.Audit, d.Reports),
		AuditHandler:    handlers.NewAuditHandler(d.Audit),
	}
	if d.Auth != nil {
		s.AuthHandler = handlers.NewAuthHandler(d.Auth)
	}
	return s
}

// Run starts the server and the broadcaster.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.WSManager.Start(ctx)

	handler := SetupRoutes(s)
	instrumentedHandler := otelhttp.NewHandler(handler, "airstrike-api")

	s.srv = &http.Server{
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		log.Println("Web Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web Server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", ln.Addr())
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
