package captive

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

const (
	shutdownTimeout = 5 * time.Second
	portalRateLimit = 60
)

// Service implements ports.CaptiveService on local sockets.
type Service struct {
	DNSAddr  string
	HTTPAddr string

	mu       sync.Mutex
	portalIP net.IP
	dns      *DNSResponder
	server   *http.Server
	listener net.Listener
	served   chan struct{}
	limiter  *middleware.RateLimiter
}

var _ ports.CaptiveService = (*Service)(nil)

// NewService creates a stopped captive service.
func NewService(dnsAddr, httpAddr string) *Service {
	return &Service{DNSAddr: dnsAddr, HTTPAddr: httpAddr}
}

// StartRedirectAllDNS starts (or restarts) the responder pointing at ip.
func (s *Service) StartRedirectAllDNS(ip net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dns != nil {
		_ = s.dns.Close()
		s.dns = nil
	}
	r, err := ListenDNS(s.DNSAddr, ip)
	if err != nil {
		return err
	}
	s.dns = r
	s.portalIP = ip
	log.Printf("[CAPTIVE] DNS redirect to %v on %v", ip, r.Addr())
	return nil
}

func (s *Service) StopDNS() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dns == nil {
		return nil
	}
	err := s.dns.Close()
	s.dns = nil
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// DNSListenAddr is the bound DNS address, nil when stopped.
func (s *Service) DNSListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dns == nil {
		return nil
	}
	return s.dns.Addr()
}

// StartHTTPServer binds HTTPAddr and serves routes until StopHTTPServer.
func (s *Service) StartHTTPServer(routes ports.PortalRoutes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("portal already serving on %v", s.listener.Addr())
	}
	ln, err := net.Listen("tcp", s.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen portal %s: %w", s.HTTPAddr, err)
	}

	host := ""
	if s.portalIP != nil {
		host = s.portalIP.String()
	}
	s.limiter = middleware.NewRateLimiter(portalRateLimit, time.Minute)
	s.server = &http.Server{
		Handler:           NewPortalHandler(routes, host, s.limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.listener = ln
	s.served = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[CAPTIVE] Portal server error: %v", err)
		}
	}(s.server, s.served)

	log.Printf("[CAPTIVE] Portal serving on %v", ln.Addr())
	return nil
}

func (s *Service) StopHTTPServer() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.server.Shutdown(ctx)
	<-s.served
	s.limiter.Close()
	s.server, s.listener, s.served, s.limiter = nil, nil, nil, nil
	return err
}

// HTTPListenAddr is the bound portal address, nil when stopped.
func (s *Service) HTTPListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops both responders.
func (s *Service) Close() error {
	return errors.Join(s.StopDNS(), s.StopHTTPServer())
}
