package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesInjected counts frames handed to the radio by attack machines
	FramesInjected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "frames_injected_total",
			Help:      "Total number of frames handed to the radio",
		},
		[]string{"attack", "kind"},
	)

	// InjectionErrors counts failed injection attempts
	InjectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "injection_errors_total",
			Help:      "Total number of failed frame injection attempts",
		},
		[]string{"attack"},
	)

	// FramesCaptured counts frames delivered by the capture callback
	FramesCaptured = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "frames_captured_total",
			Help:      "Total number of frames delivered by the radio in promiscuous mode",
		},
	)

	// CaptureDropped counts captured frames dropped because the queue was full
	CaptureDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "capture_dropped_total",
			Help:      "Total number of captured frames dropped before parsing",
		},
	)

	// ObservationsEvicted counts probe observations removed after the device timeout
	ObservationsEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "observations_evicted_total",
			Help:      "Total number of probe observations evicted as stale",
		},
	)

	// AttacksStarted counts successful attack starts
	AttacksStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "attacks_started_total",
			Help:      "Total number of attacks started",
		},
		[]string{"attack"},
	)

	// CredentialsCaptured counts portal login submissions
	CredentialsCaptured = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "credentials_captured_total",
			Help:      "Total number of credential submissions received by the portal",
		},
	)

	// DNSQueries counts queries answered by the redirect responder
	DNSQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "dns_queries_total",
			Help:      "Total number of DNS queries answered by the captive responder",
		},
	)

	// RecordsPersisted counts records written to storage
	RecordsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "records_persisted_total",
			Help:      "Total number of records written to storage",
		},
		[]string{"kind"},
	)

	// RecordsDropped counts records dropped on a full buffer or after shutdown
	RecordsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "records_dropped_total",
			Help:      "Total number of records dropped by the persistence buffer",
		},
	)

	// VendorLookups counts OUI lookups by outcome (cache, registry, unknown,
	// randomized, invalid, error)
	VendorLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airstrike",
			Name:      "vendor_lookups_total",
			Help:      "Total number of OUI vendor lookups by outcome",
		},
		[]string{"result"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		for _, c := range []prometheus.Collector{
			FramesInjected, InjectionErrors, FramesCaptured, CaptureDropped,
			ObservationsEvicted, AttacksStarted, CredentialsCaptured, DNSQueries,
			RecordsPersisted, RecordsDropped, VendorLookups,
		} {
			prometheus.DefaultRegisterer.Register(c)
		}
	})
}
