package persistence

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

const (
	DefaultBatchSize = 100
	DefaultInterval  = 5 * time.Second
)

// PersistenceManager handles background batch writing of records to storage.
type PersistenceManager struct {
	storage     ports.RecordSink
	vendors     ports.VendorLookup
	persistChan chan domain.Record
	batchSize   int
	interval    time.Duration
	enabled     bool
	mu          sync.RWMutex
	done        chan struct{}
}

var _ ports.RecordPersister = (*PersistenceManager)(nil)

// NewPersistenceManager creates a new manager.
func NewPersistenceManager(storage ports.RecordSink, bufferSize int) *PersistenceManager {
	if bufferSize <= 0 {
		bufferSize = DefaultBatchSize
	}
	return &PersistenceManager{
		storage:     storage,
		persistChan: make(chan domain.Record, bufferSize),
		batchSize:   DefaultBatchSize,
		interval:    DefaultInterval,
		enabled:     true,
		done:        make(chan struct{}),
	}
}

// SetVendorLookup enables manufacturer enrichment of probe records.
func (p *PersistenceManager) SetVendorLookup(v ports.VendorLookup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vendors = v
}

// Persist queues a record if enabled. It never blocks; a full queue drops.
func (p *PersistenceManager) Persist(rec domain.Record) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled || rec == nil {
		return
	}
	select {
	case <-p.done:
		telemetry.RecordsDropped.Inc()
		log.Printf("[PERSISTENCE] Dropped %s record after shutdown", rec.Kind())
		return
	default:
	}
	select {
	case p.persistChan <- rec:
	default:
		telemetry.RecordsDropped.Inc()
	}
}

// IsEnabled returns the current persistence status.
func (p *PersistenceManager) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// SetEnabled toggles the persistence logic.
func (p *PersistenceManager) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetStorage updates the storage adapter used for persistence.
func (p *PersistenceManager) SetStorage(storage ports.RecordSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storage = storage
}

// Start begins the persistence loop. Cancelling ctx flushes what is buffered.
func (p *PersistenceManager) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	var buffer []domain.Record

	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
			drain:
				for {
					select {
					case rec := <-p.persistChan:
						buffer = append(buffer, rec)
					default:
						break drain
					}
				}
				p.flushBuffer(buffer)
				return
			case rec := <-p.persistChan:
				buffer = append(buffer, rec)
				if len(buffer) >= p.batchSize {
					p.flushBuffer(buffer)
					buffer = nil
				}
			case <-ticker.C:
				if len(buffer) > 0 {
					p.flushBuffer(buffer)
					buffer = nil
				}
			}
		}
	}()
}

// Done is closed after the final flush.
func (p *PersistenceManager) Done() <-chan struct{} {
	return p.done
}

func (p *PersistenceManager) flushBuffer(buffer []domain.Record) {
	p.mu.RLock()
	storage, vendors := p.storage, p.vendors
	p.mu.RUnlock()
	if len(buffer) == 0 || storage == nil {
		return
	}
	if vendors != nil {
		for i, rec := range buffer {
			buffer[i] = enrich(rec, vendors)
		}
	}
	if err := storage.SaveBatch(context.Background(), buffer); err != nil {
		log.Printf("[DB-ERR] Failed to batch save %d records: %v", len(buffer), err)
		return
	}
	for _, rec := range buffer {
		telemetry.RecordsPersisted.WithLabelValues(string(rec.Kind())).Inc()
	}
}

func enrich(rec domain.Record, vendors ports.VendorLookup) domain.Record {
	probe, ok := rec.(domain.ProbeRecord)
	if !ok || probe.Vendor != "" || probe.Random {
		return rec
	}
	if v, err := vendors.LookupVendor(probe.Client); err == nil {
		probe.Vendor = v
	}
	return probe
}
