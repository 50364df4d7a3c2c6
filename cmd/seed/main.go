// Package main provides a tool to seed the database with sample notes.
//
// Notes are written through the validator so they look like API-created
// data, which makes the tool useful for trying filters, ranking and paging.
//
// Usage:
//
//	DATABASE_URL=postgres://localhost/notes go run ./cmd/seed
//	DATABASE_URL=postgres://localhost/notes go run ./cmd/seed --count 500
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/store/postgres"
	"github.com/notekeep/notekeep-server/internal/validation"
)

var count = flag.Int("count", 100, "Number of notes to create")

//nolint:gochecknoglobals // Sample vocabulary
var (
	subjects = []string{"Meeting", "Standup", "Design review", "Retro", "1:1", "Incident", "Planning"}
	topics   = []string{"search latency", "export format", "cursor paging", "tag cleanup", "release notes", "on-call rota", "database upgrade"}
	actions  = []string{"follow up next week", "needs a decision", "blocked on review", "shipped", "parked for now"}
	tagPool  = []string{"work", "ideas", "todo", "ops", "backend", "frontend", "meeting", "release"}
)

func main() {
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{URL: dbURL, MaxConns: 4}, logger)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	s := postgres.New(pool, logger)
	v := validation.New()

	// Seed random for variety (Go 1.20+ auto-seeds, but explicit for clarity)
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Sample data

	created := 0
	for range *count {
		content, err := v.Content(sampleContent(rng))
		if err != nil {
			log.Printf("Skipping note: %v", err)
			continue
		}
		tags, err := v.Tags(sampleTags(rng))
		if err != nil {
			log.Printf("Skipping note: %v", err)
			continue
		}

		if _, err := s.CreateNote(ctx, content, tags); err != nil {
			log.Fatalf("Failed to create note: %v", err)
		}
		created++
	}

	fmt.Printf("Created %d notes\n", created)
}

func sampleContent(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString(subjects[rng.Intn(len(subjects))])
	b.WriteString(": ")
	b.WriteString(topics[rng.Intn(len(topics))])
	b.WriteString(", ")
	b.WriteString(actions[rng.Intn(len(actions))])
	return b.String()
}

func sampleTags(rng *rand.Rand) []string {
	n := 1 + rng.Intn(3)
	tags := make([]string, 0, n)
	for range n {
		tags = append(tags, tagPool[rng.Intn(len(tagPool))])
	}
	return tags
}
