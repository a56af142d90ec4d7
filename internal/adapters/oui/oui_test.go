package oui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lcalzada-xor/airstrike/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newVendorCache(2)
	c.remember("00:00:0A", "Alpha")
	c.rememberUnknown("00:00:0B")
	_, _, _ = c.lookup("00:00:0A")
	c.remember("00:00:0C", "Gamma")

	_, _, found := c.lookup("00:00:0B")
	assert.False(t, found, "0B was least recently used")
	v, known, found := c.lookup("00:00:0A")
	assert.True(t, found)
	assert.True(t, known)
	assert.Equal(t, "Alpha", v)
	assert.Equal(t, 2, c.size())

	c.rememberUnknown("00:00:0A")
	_, known, found = c.lookup("00:00:0A")
	assert.True(t, found)
	assert.False(t, known)
	assert.Equal(t, 2, c.size())
}

func TestVendorCache_Concurrency(t *testing.T) {
	c := newVendorCache(100)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := string(rune('A' + (i+j)%26))
				c.remember(key, key)
				c.lookup(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.size(), 26)
}

func TestPrefix(t *testing.T) {
	p, err := Prefix("00:1a:11:22:33:44")
	require.NoError(t, err)
	assert.Equal(t, "00:1A:11", p)

	p, err = Prefix("001A11223344")
	require.NoError(t, err)
	assert.Equal(t, "00:1A:11", p)

	_, err = Prefix("DA:A1:19:00:00:01")
	assert.ErrorIs(t, err, ErrLocalAddress)

	_, err = Prefix("nope")
	assert.Error(t, err)
}

func TestNormalizePrefix(t *testing.T) {
	for in, want := range map[string]string{
		"00-1a-11":          "00:1A:11",
		"001a11":            "00:1A:11",
		"00:1A:11:22:33:44": "00:1A:11",
		" b8.27.eb ":        "B8:27:EB",
	} {
		assert.Equal(t, want, NormalizePrefix(in), in)
	}
}

func TestShortVendor(t *testing.T) {
	assert.Equal(t, "Apple", ShortVendor("Apple, Inc."))
	assert.Equal(t, "Intel", ShortVendor("Intel Corporation"))
	assert.Equal(t, "Espressif", ShortVendor("Espressif Inc."))
	assert.Equal(t, "Samsung Electronics", ShortVendor("Samsung Electronics Co., Ltd."))
}

func TestDatabase_ImportAndLookup(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "oui.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	csv := "Mac Prefix,Vendor Name,Private,Block Type,Last Update\n" +
		"00:1A:11,Google Inc.,false,MA-L,2015/01/01\n" +
		"B8-27-EB,Raspberry Pi Foundation,false,MA-L,2016/01/01\n" +
		"bad,,false,MA-L,\n"
	n, err := ImportCSV(ctx, db, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	v, err := db.Lookup(ctx, "00:1a:11")
	require.NoError(t, err)
	assert.Equal(t, "Google", v)

	v, err = db.Lookup(ctx, "B8:27:EB")
	require.NoError(t, err)
	assert.Equal(t, "Raspberry Pi Foundation", v)

	_, err = db.Lookup(ctx, "FF:FF:FF")
	assert.ErrorIs(t, err, ErrVendorNotFound)

	st, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalEntries)

	require.NoError(t, db.Close())
	_, err = db.Lookup(ctx, "00:1A:11")
	assert.ErrorIs(t, err, ErrRepositoryClosed)
}

type countingRepo struct {
	Static
	calls int
}

func (c *countingRepo) Lookup(ctx context.Context, prefix string) (string, error) {
	c.calls++
	return c.Static.Lookup(ctx, prefix)
}

func TestResolver_CachesHitsAndMisses(t *testing.T) {
	repo := &countingRepo{Static: Static{"00:1A:11": "Google"}}
	r := NewResolver(repo, 16)

	for i := 0; i < 3; i++ {
		v, err := r.LookupVendor("00:1A:11:00:00:01")
		require.NoError(t, err)
		assert.Equal(t, "Google", v)
	}
	for i := 0; i < 2; i++ {
		_, err := r.LookupVendor("00:00:01:00:00:01")
		assert.ErrorIs(t, err, ErrVendorNotFound)
	}
	assert.Equal(t, 2, repo.calls)
	assert.Equal(t, 2, r.CachedPrefixes())

	_, err := r.LookupVendor("DA:A1:19:00:00:01")
	assert.ErrorIs(t, err, ErrLocalAddress)
}

func TestResolver_CountsLookupsByOutcome(t *testing.T) {
	count := func(result string) float64 {
		return testutil.ToFloat64(telemetry.VendorLookups.WithLabelValues(result))
	}
	before := map[string]float64{}
	for _, k := range []string{"cache", "registry", "unknown", "randomized", "error"} {
		before[k] = count(k)
	}

	r := NewResolver(Static{"00:1A:11": "Google"}, 16)
	_, _ = r.LookupVendor("00:1A:11:00:00:01")
	_, _ = r.LookupVendor("00:1A:11:00:00:02")
	_, _ = r.LookupVendor("00:1A:11:00:00:03")
	_, _ = r.LookupVendor("00:00:01:00:00:01")
	_, _ = r.LookupVendor("DA:A1:19:00:00:01")
	_, _ = NewResolver(failingRepo{}, 16).LookupVendor("00:00:02:00:00:01")

	assert.Equal(t, 2.0, count("cache")-before["cache"])
	assert.Equal(t, 1.0, count("registry")-before["registry"])
	assert.Equal(t, 1.0, count("unknown")-before["unknown"])
	assert.Equal(t, 1.0, count("randomized")-before["randomized"])
	assert.Equal(t, 1.0, count("error")-before["error"])
}

type failingRepo struct{}

func (failingRepo) Lookup(context.Context, string) (string, error) { return "", errors.New("io") }
func (failingRepo) Close() error                                   { return nil }

func TestComposite_FallsThrough(t *testing.T) {
	c := NewComposite(Static{}, failingRepo{}, Common)
	v, err := c.Lookup(context.Background(), "B8:27:EB")
	require.NoError(t, err)
	assert.Equal(t, "Raspberry Pi", v)

	_, err = c.Lookup(context.Background(), "FF:FF:FF")
	assert.EqualError(t, err, "io")

	_, err = NewComposite(Static{}).Lookup(context.Background(), "FF:FF:FF")
	assert.ErrorIs(t, err, ErrVendorNotFound)
	assert.NoError(t, c.Close())
}
