package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/lcalzada-xor/airstrike/internal/adapters/oui"
)

func main() {
	csvPath := flag.String("csv", "data/oui/maclookup.csv", "Path to CSV file")
	dbPath := flag.String("db", "data/oui/ieee_oui.db", "Path to OUI database")
	flag.Parse()

	log.Printf("Importing OUI data from %s into %s", *csvPath, *dbPath)

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	db, err := oui.OpenDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	n, err := oui.ImportCSV(ctx, db, f)
	if err != nil {
		log.Fatalf("Import failed after %d entries: %v", n, err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to get stats: %v", err)
	}
	log.Printf("Import complete: %d new, %d total", n, stats.TotalEntries)
}
