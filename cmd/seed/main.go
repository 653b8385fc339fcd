package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"log/slog"
	"os"

	"hrdocs/internal/config"
	"hrdocs/internal/repository"
	"hrdocs/internal/seed"

	"github.com/joho/godotenv"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

func main() {
	fixturePath := flag.String("fixture", "", "YAML fixture to load (default: built-in demo data)")
	clearData := flag.Bool("clear-data", false, "Delete the fixture employees' existing items first")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The memory store keeps nothing after exit
	if cfg.StoreBackend == config.StoreMemory {
		log.Fatalf("STORE_BACKEND=memory cannot be seeded; use sqlite or postgres")
	}

	// Prevent destructive operations in production
	if cfg.Environment == "prod" && *clearData {
		log.Fatalf("BLOCKED: --clear-data is not allowed in the prod environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	data := demoFixture
	if *fixturePath != "" {
		data, err = os.ReadFile(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to read fixture: %v", err)
		}
	}
	fixture, err := seed.LoadFixture(data)
	if err != nil {
		log.Fatalf("Invalid fixture: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := repository.OpenItemStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open item store: %v", err)
	}
	defer closeStore()

	contentStore, err := repository.OpenContentStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open content store: %v", err)
	}

	seeder := seed.NewSeeder(store, contentStore, logger)

	if *clearData {
		for _, emp := range fixture.Employees {
			n, err := seeder.Clear(ctx, emp.ID)
			if err != nil {
				log.Fatalf("Failed to clear data: %v", err)
			}
			logger.Info("employee cleared", "employee_id", emp.ID, "items", n)
		}
	}

	stats, err := seeder.Apply(ctx, fixture)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("seeding complete",
		"store_backend", cfg.StoreBackend,
		"employees", stats.Employees,
		"folders", stats.Folders,
		"files", stats.Files,
	)
}
