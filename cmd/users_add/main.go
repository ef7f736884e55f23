package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/config"
	"github.com/2beens/healthify/internal/db"
	"github.com/2beens/healthify/internal/users"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Provisions a user and prints a session token for it.
// Sign-up and login are handled outside this service.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	username := flag.String("username", "", "username of the new user")
	email := flag.String("email", "", "email of the new user")
	flag.Parse()

	if *username == "" || *email == "" {
		log.Fatalln("both -username and -email must be set")
	}

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

	user, err := users.NewRepo(dbPool).Add(ctx, users.User{
		Username:   *username,
		Email:      *email,
		StreakGoal: cfg.StreakGoal,
	})
	if errors.Is(err, users.ErrUserExists) {
		log.Fatalf("username %q or email %q is already taken", *username, *email)
	} else if err != nil {
		log.Fatalf("add user: %s", err)
	}
	log.Infof("user %s added with id %d", user.Username, user.ID)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("HEALTHIFY_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	token, err := auth.NewAuthService(auth.DefaultTTL, rdb).NewSession(ctx, user.ID, time.Now())
	if err != nil {
		log.Fatalf("new session: %s", err)
	}

	fmt.Println(token)
}
