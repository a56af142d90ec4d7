package ports

import (
	"context"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// RecordSink is the persistent credential/probe store.
type RecordSink interface {
	// Save persists one record under its kind.
	Save(ctx context.Context, rec domain.Record) error

	// SaveBatch persists several records in one transaction.
	SaveBatch(ctx context.Context, recs []domain.Record) error

	// Count returns the number of stored records of kind.
	Count(ctx context.Context, kind domain.RecordKind) (int64, error)
}

// RecordReader exposes stored records to reports and the control API.
type RecordReader interface {
	ListProbes(ctx context.Context, limit int) ([]domain.ProbeRecord, error)
	ListCredentials(ctx context.Context, limit int) ([]domain.CredentialRecord, error)
}

// Storage is the full persistence adapter.
type Storage interface {
	RecordSink
	RecordReader
	AuditRepository

	// Close closes the storage connection.
	Close() error
}

// RecordPersister accepts records without blocking the caller.
type RecordPersister interface {
	Persist(rec domain.Record)
}

// VendorLookup resolves the manufacturer of a hardware address.
type VendorLookup interface {
	LookupVendor(mac string) (string, error)
}
