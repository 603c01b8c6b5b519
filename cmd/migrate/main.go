package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"smrt/config"
	"smrt/internal/migrate"
	"smrt/internal/store"
	"smrt/internal/util"

	"go.uber.org/zap"
)

func main() {
	cmd := flag.String("cmd", "up", "up | down | status | version | validate | create | to")
	name := flag.String("name", "", "migration name for -cmd create")
	table := flag.String("table", "", "scaffold a new audited table for -cmd create instead of a blank migration")
	version := flag.String("version", "", "target version for -cmd to")
	dir := flag.String("dir", migrate.SourceDir, "migration source directory for create and validate")
	flag.Parse()

	// create and validate work on files only
	switch *cmd {
	case "create":
		var (
			path string
			err  error
		)
		if *table != "" {
			path, err = migrate.CreateTableMigration(*dir, *table)
		} else {
			path, err = migrate.CreateSQLMigration(*dir, *name)
		}
		if err != nil {
			log.Fatalf("create migration: %v", err)
		}
		fmt.Println(path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			log.Fatalf("invalid migrations: %v", err)
		}
		if err := migrate.ValidateEmbedded(); err != nil {
			log.Fatalf("invalid embedded migrations: %v", err)
		}
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *cmd {
	case "to":
		err = migrate.MigrateToVersion(ctx, db.GetDB().DB, *version)
	case "up", "down", "status", "version", "redo", "reset":
		err = migrate.Run(ctx, db.GetDB().DB, *cmd)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", *cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("Migration command failed", zap.String("cmd", *cmd), zap.Error(err))
	}
	logger.Info("Migration command finished", zap.String("cmd", *cmd))
}
