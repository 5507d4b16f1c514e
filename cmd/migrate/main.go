package main

import (
	"context"
	"log"
	"os"

	"alignbench/adapters/filesystem"
	"alignbench/adapters/postgres"
	"alignbench/internal/config"
	"alignbench/internal/container"
	"alignbench/ports"

	"github.com/joho/godotenv"
)

// Copies scored runs from RESULTS_DIR/processed into the postgres runs table.
// Usage: migrate [results_dir]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Database.Enabled() {
		log.Fatal("DATABASE_URL is required")
	}
	resultsDir := cfg.Paths.ResultsDir
	if len(os.Args) > 1 {
		resultsDir = os.Args[1]
	}

	ctx := context.Background()
	log.Printf("Starting migration of scored runs from %s", resultsDir)

	db, err := container.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrated, skipped, err := copyRuns(ctx, filesystem.NewRunStore(resultsDir), postgres.NewRunRepository(db))
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}

// copyRuns saves every record of src into dst. Records that fail to save are skipped.
func copyRuns(ctx context.Context, src, dst ports.RunRepository) (migrated, skipped int, err error) {
	records, err := src.List(ctx, ports.RunFilter{})
	if err != nil {
		return 0, 0, err
	}
	log.Printf("Found %d scored runs to migrate", len(records))

	for i := range records {
		if err := dst.Save(ctx, &records[i]); err != nil {
			log.Printf("Failed to save %s: %v", records[i].Key, err)
			skipped++
			continue
		}
		migrated++
	}
	return migrated, skipped, nil
}
