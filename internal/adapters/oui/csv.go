package oui

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"
	"time"
)

const importBatch = 1000

var vendorSuffixes = []string{
	" Co., Ltd.", " Inc.", " Inc", " Corporation", " Corp.", " Corp",
	" Ltd.", " Ltd", " Limited", " Co.", " LLC", " GmbH", " S.A.", " AG",
}

// ShortVendor strips corporate suffixes and anything after the first comma.
func ShortVendor(vendor string) string {
	vendor = strings.TrimSpace(vendor)
	if idx := strings.Index(vendor, ","); idx > 0 {
		vendor = vendor[:idx]
	}
	for _, s := range vendorSuffixes {
		vendor = strings.TrimSuffix(vendor, s)
	}
	return strings.TrimSpace(vendor)
}

// ImportCSV loads a "Mac Prefix,Vendor Name,..." file with a header row.
// It returns the number of entries written.
func ImportCSV(ctx context.Context, db *Database, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil {
		return 0, err
	}

	now := time.Now()
	var (
		batch []Entry
		total int
		line  = 1
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Printf("[OUI] Skipping line %d: %v", line, err)
			continue
		}
		if len(record) < 2 {
			continue
		}
		prefix, vendor := NormalizePrefix(record[0]), strings.TrimSpace(record[1])
		if len(prefix) != 8 || vendor == "" {
			continue
		}
		batch = append(batch, Entry{Prefix: prefix, Vendor: vendor, VendorShort: ShortVendor(vendor), LastUpdated: now})
		if len(batch) >= importBatch {
			if err := db.BulkInsert(ctx, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := db.BulkInsert(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
