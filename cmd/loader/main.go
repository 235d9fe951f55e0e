// Command loader bulk-upserts club records from a JSON file into the
// database. Input is an array of club objects matching the API's club
// shape; records without an id get a fresh one.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/fairwaylabs/clubfinder/internal/club"
	"github.com/fairwaylabs/clubfinder/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	file := flag.String("file", "clubs.json", "path to the JSON file of club records")
	flag.Parse()

	if err := run(log, *file); err != nil {
		log.Error("loader exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, file string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	ctx := context.Background()

	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	clubs, err := readClubs(file)
	if err != nil {
		return err
	}

	repo := storage.NewRepository(pool)
	loaded := 0
	for i := range clubs {
		if clubs[i].ID == uuid.Nil {
			clubs[i].ID = uuid.New()
		}
		if err := repo.UpsertClub(ctx, &clubs[i]); err != nil {
			log.Error("upsert failed, skipping record", "name", clubs[i].Name, "err", err)
			continue
		}
		loaded++
	}

	log.Info("load complete", "file", file, "loaded", loaded, "total", len(clubs))
	return nil
}

func readClubs(file string) ([]club.Club, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}

	var clubs []club.Club
	if err := json.Unmarshal(b, &clubs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}

	return clubs, nil
}
