package main

import (
	"context"
	"flag"
	"log"

	"github.com/yakgung/drugfood-guard/backend/config"
	"github.com/yakgung/drugfood-guard/backend/internal/database"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
)

// Loads the reference CSV datasets into the database. Run once at deploy
// time and again whenever the datasets change.
func main() {
	drugsCSV := flag.String("drugs", "", "path to the drug catalog CSV (default from config)")
	foodsCSV := flag.String("foods", "", "path to the food catalog CSV (default from config)")
	interactionsCSV := flag.String("interactions", "", "path to the interactions CSV (default from config)")
	rebuild := flag.Bool("rebuild", false, "drop existing interactions before loading")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if *drugsCSV == "" {
		*drugsCSV = cfg.DrugsCSV
	}
	if *foodsCSV == "" {
		*foodsCSV = cfg.FoodsCSV
	}
	if *interactionsCSV == "" {
		*interactionsCSV = cfg.InteractionsCSV
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()
	ingest := service.NewIngestService(db, service.NewEmbeddingService())

	if _, err := ingest.LoadDrugs(ctx, *drugsCSV); err != nil {
		log.Fatalf("failed to load drugs: %v", err)
	}
	if _, err := ingest.LoadFoods(ctx, *foodsCSV); err != nil {
		log.Fatalf("failed to load foods: %v", err)
	}
	count, err := ingest.LoadInteractions(ctx, *interactionsCSV, *rebuild)
	if err != nil {
		log.Fatalf("failed to load interactions: %v", err)
	}

	log.Printf("seeding complete, %d interaction rules loaded", count)
}
