// Package main prints the albums and the payment ledger of a storefront database.
//
// Usage:
//
//	DB_PATH=~/.elephoto/elephoto.db go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store/sqlite"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.elephoto/elephoto.db")
	}

	db, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	albums, err := db.ListAlbums(ctx)
	if err != nil {
		log.Fatalf("Failed to list albums: %v", err)
	}

	totalPhotos, totalPaid := 0, 0
	for _, album := range albums {
		photos, err := db.ListPhotosByAlbum(ctx, album.ID)
		if err != nil {
			log.Fatalf("Failed to list photos of %s: %v", album.Code, err)
		}

		paid, unpurchasable := 0, 0
		for _, p := range photos {
			if p.Paid {
				paid++
			}
			if !p.IsPurchasable() {
				unpurchasable++
			}
		}
		totalPhotos += len(photos)
		totalPaid += paid

		fmt.Printf("%-20s %-24s photos=%-4d paid=%-4d no_original=%d\n",
			album.Code, album.ID, len(photos), paid, unpurchasable)
	}

	fmt.Println()
	fmt.Printf("Albums: %d\n", len(albums))
	fmt.Printf("Photos: %d (%d paid)\n", totalPhotos, totalPaid)
	fmt.Println()

	outcomes := []domain.ReconcileOutcome{
		domain.OutcomeApplied,
		domain.OutcomeNoPhotos,
		domain.OutcomeIgnored,
		domain.OutcomeFailed,
	}
	fmt.Println("=== Payment Ledger ===")
	for _, outcome := range outcomes {
		events, err := db.ListPaymentEventsByOutcome(ctx, outcome)
		if err != nil {
			log.Fatalf("Failed to list %s events: %v", outcome, err)
		}
		fmt.Printf("%-10s %d\n", outcome, len(events))

		if outcome != domain.OutcomeFailed {
			continue
		}
		for _, e := range events {
			fmt.Printf("  %s session=%s photos=%d attempts=%d error=%q\n",
				e.EventID, e.SessionID, len(e.PhotoIDs), e.Attempts, e.Error)
		}
	}
}
