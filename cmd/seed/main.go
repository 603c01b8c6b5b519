package main

import (
	"context"
	"flag"
	"log"
	"time"

	"smrt/config"
	"smrt/internal/migrate"
	"smrt/internal/seed"
	"smrt/internal/store"
	"smrt/internal/util"

	"go.uber.org/zap"
)

func main() {
	runMigrations := flag.Bool("migrate", false, "apply pending migrations before seeding")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migrate.MaybeAutoMigrate(ctx, *runMigrations, db.GetDB().DB, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	result, err := seed.New(db).Run(ctx)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Info("Seeding finished",
		zap.Int("categories_created", result.CategoriesCreated),
		zap.Int("categories_existing", result.CategoriesExisting),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("products_existing", result.ProductsExisting))
}
