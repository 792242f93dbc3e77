package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/repository"
)

// Replays stored match records and checks that each log folds into a finished
// state with the recorded winner.
//
//	go run scripts/verify_records.go -driver sqlite -dsn data/records.db <game id>...
func main() {
	driver := flag.String("driver", "sqlite", "record store driver (sqlite, postgres)")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "record store dsn")
	flag.Parse()

	ids := flag.Args()
	if len(ids) == 0 {
		log.Fatal("usage: verify_records [-driver d] [-dsn s] <game id>...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("=== Zombals Record Verification ===")
	fmt.Printf("Connecting to %s store...\n", *driver)
	store, err := repository.Open(ctx, *driver, *dsn)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()
	fmt.Println("✓ Record store opened")

	failed := 0
	for _, id := range ids {
		if err := verify(ctx, store, id); err != nil {
			fmt.Printf("✗ %s: %v\n", id, err)
			failed++
		}
	}

	fmt.Printf("\nVerified %d records, %d failed\n", len(ids), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func verify(ctx context.Context, store repository.RecordStore, id string) error {
	rec, err := store.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	replay := game.NewReplay(rec)
	if err := replay.Skip(replay.Size()); err != nil {
		return fmt.Errorf("replay stopped at action %d: %w", replay.Index(), err)
	}
	state := replay.State()
	if !state.Finished {
		return fmt.Errorf("log of %d actions does not end the match", replay.Size())
	}
	if state.Winner != rec.Winner {
		return fmt.Errorf("replayed winner %s, record says %s", state.Winner, rec.Winner)
	}

	digest, err := state.Digest()
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s: %d actions, turn %d, %s, digest %s\n", id, replay.Size(), state.Turn, outcome(rec), digest[:16])
	return nil
}

func outcome(rec *game.Record) string {
	if rec.Winner == model.LeaderNone {
		return "draw"
	}
	return "winner " + rec.WinnerUserID
}
