package ports

import (
	"net"
	"net/http"
)

// PortalRoutes are the only two handlers the captive HTTP server exposes.
// Every other path is redirected to the root.
type PortalRoutes struct {
	Root  http.HandlerFunc
	Login http.HandlerFunc
}

// CaptiveService runs the local-network DNS and HTTP responders of an evil twin.
type CaptiveService interface {
	// StartRedirectAllDNS answers every A query with ip.
	StartRedirectAllDNS(ip net.IP) error
	StopDNS() error
	StartHTTPServer(routes PortalRoutes) error
	StopHTTPServer() error
}
