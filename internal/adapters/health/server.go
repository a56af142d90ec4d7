package health

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// EngineService is SERVING while any attack runs.
	EngineService = "airstrike.engine"
	// DefaultInterval is the state polling period.
	DefaultInterval = time.Second
)

// AttackServiceName is the per-attack health service name.
func AttackServiceName(t domain.AttackType) string {
	return "airstrike.attack." + t.String()
}

var attackTypes = []domain.AttackType{
	domain.AttackDeauth,
	domain.AttackBeaconSpam,
	domain.AttackProbeSniff,
	domain.AttackRickrollBeacon,
	domain.AttackEvilTwin,
}

// EngineState is the part of the attack service health reports on.
type EngineState interface {
	CurrentAttack() domain.AttackType
}

// Server exposes grpc.health.v1 with one status per attack.
type Server struct {
	GRPC     *grpc.Server
	Interval time.Duration

	health *health.Server
	state  EngineState
}

func NewServer(state EngineState) *Server {
	s := &Server{
		GRPC:     grpc.NewServer(),
		Interval: DefaultInterval,
		health:   health.NewServer(),
		state:    state,
	}
	healthpb.RegisterHealthServer(s.GRPC, s.health)
	s.Refresh()
	return s
}

// Refresh publishes the current engine state.
func (s *Server) Refresh() {
	current := s.state.CurrentAttack()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(EngineService, servingIf(current != domain.AttackNone))
	for _, t := range attackTypes {
		s.health.SetServingStatus(AttackServiceName(t), servingIf(current == t))
	}
}

func servingIf(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Serve polls the engine and serves on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.GRPC.GracefulStop()
				return
			case <-ticker.C:
				s.Refresh()
			}
		}
	}()

	log.Printf("gRPC health listening on %s", lis.Addr())
	return s.GRPC.Serve(lis)
}
