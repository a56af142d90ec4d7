package oui

import (
	"context"
	"errors"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

const lookupTimeout = 2 * time.Second

// Resolver implements ports.VendorLookup over a Repository with an LRU in front.
type Resolver struct {
	repo  Repository
	cache *vendorCache
}

var _ ports.VendorLookup = (*Resolver)(nil)

func NewResolver(repo Repository, cacheSize int) *Resolver {
	return &Resolver{repo: repo, cache: newVendorCache(cacheSize)}
}

// LookupVendor resolves the manufacturer of mac. Unknown prefixes are cached
// as well. Every lookup is counted in airstrike_vendor_lookups_total.
func (r *Resolver) LookupVendor(mac string) (string, error) {
	prefix, err := Prefix(mac)
	if err != nil {
		result := "invalid"
		if errors.Is(err, ErrLocalAddress) {
			result = "randomized"
		}
		telemetry.VendorLookups.WithLabelValues(result).Inc()
		return "", err
	}
	if v, known, found := r.cache.lookup(prefix); found {
		telemetry.VendorLookups.WithLabelValues("cache").Inc()
		if !known {
			return "", ErrVendorNotFound
		}
		return v, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	v, err := r.repo.Lookup(ctx, prefix)
	switch {
	case err == nil:
		telemetry.VendorLookups.WithLabelValues("registry").Inc()
		r.cache.remember(prefix, v)
		return v, nil
	case errors.Is(err, ErrVendorNotFound):
		telemetry.VendorLookups.WithLabelValues("unknown").Inc()
		r.cache.rememberUnknown(prefix)
	default:
		telemetry.VendorLookups.WithLabelValues("error").Inc()
	}
	return "", err
}

// CachedPrefixes is the number of prefixes held in memory.
func (r *Resolver) CachedPrefixes() int {
	return r.cache.size()
}

func (r *Resolver) Close() error {
	return r.repo.Close()
}
