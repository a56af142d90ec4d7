package oui

import (
	"context"
	"errors"
	"strings"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// Repository maps a normalized "XX:XX:XX" prefix to a vendor name.
type Repository interface {
	Lookup(ctx context.Context, prefix string) (string, error)
	Close() error
}

// Prefix returns the "XX:XX:XX" OUI of mac. Randomized addresses yield ErrLocalAddress.
func Prefix(mac string) (string, error) {
	hw, err := domain.ParseHardwareAddr(mac)
	if err != nil {
		return "", err
	}
	if domain.IsRandomizedMAC(hw) {
		return "", ErrLocalAddress
	}
	return domain.FormatMAC(hw)[:8], nil
}

// NormalizePrefix converts "aa-bb-cc", "aabbcc" or "AA:BB:CC:..." to "AA:BB:CC".
func NormalizePrefix(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	p = strings.NewReplacer("-", ":", ".", ":").Replace(p)
	if len(p) >= 8 && p[2] == ':' && p[5] == ':' {
		return p[:8]
	}
	if len(p) >= 6 && !strings.Contains(p, ":") {
		return p[0:2] + ":" + p[2:4] + ":" + p[4:6]
	}
	return p
}

// Composite tries each repository in order until one succeeds.
type Composite struct {
	repositories []Repository
}

func NewComposite(repos ...Repository) *Composite {
	return &Composite{repositories: repos}
}

func (c *Composite) Lookup(ctx context.Context, prefix string) (string, error) {
	var lastErr error
	for _, repo := range c.repositories {
		vendor, err := repo.Lookup(ctx, prefix)
		if err == nil && vendor != "" {
			return vendor, nil
		}
		if err != nil && !errors.Is(err, ErrVendorNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrVendorNotFound
}

func (c *Composite) Close() error {
	var errs []error
	for _, repo := range c.repositories {
		errs = append(errs, repo.Close())
	}
	return errors.Join(errs...)
}

// Static serves lookups from an in-memory map keyed by prefix.
type Static map[string]string

func (s Static) Lookup(_ context.Context, prefix string) (string, error) {
	if vendor, ok := s[NormalizePrefix(prefix)]; ok {
		return vendor, nil
	}
	return "", ErrVendorNotFound
}

func (Static) Close() error { return nil }

// Common holds a handful of vendors frequently seen probing, used when no
// database is configured.
var Common = Static{
	"00:03:93": "Apple",
	"3C:22:FB": "Apple",
	"F0:18:98": "Apple",
	"00:1A:11": "Google",
	"F4:F5:D8": "Google",
	"00:12:FB": "Samsung",
	"8C:77:12": "Samsung",
	"00:1B:21": "Intel",
	"3C:A9:F4": "Intel",
	"B8:27:EB": "Raspberry Pi",
	"24:0A:C4": "Espressif",
	"30:AE:A4": "Espressif",
	"00:50:F2": "Microsoft",
	"18:65:90": "Apple",
	"AC:BC:32": "Apple",
}
