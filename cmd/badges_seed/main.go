package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/2beens/healthify/internal/badges"
	"github.com/2beens/healthify/internal/config"
	"github.com/2beens/healthify/internal/db"

	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("HEALTHIFY_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("migrate: %s", err)
	}

	seeded, err := badges.NewRepo(dbPool).ReplaceAll(ctx, badges.DefaultCatalog())
	if err != nil {
		log.Fatalf("seed badges: %s", err)
	}

	for _, b := range seeded {
		log.Infof("seeded badge %d: %s [%s >= %d]", b.ID, b.Name, b.CriteriaType, b.CriteriaValue)
	}
	// running services keep serving the cached catalog until the cache TTL passes
	log.Infof("badge catalog replaced with %d badges", len(seeded))
}
