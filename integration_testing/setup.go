//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/2beens/healthify/internal"
	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/badges"
	"github.com/2beens/healthify/internal/config"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort = 9000
	serverHost = "127.0.0.1"
	testDBName = "healthify"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type testUser struct {
	ID    int
	Token string
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Host:                   serverHost,
		Port:                   serverPort,
		Environment:            "development",
		RedisHost:              "localhost",
		RedisPort:              redisPort,
		PostgresPort:           postgresPort,
		PostgresHost:           "localhost",
		PostgresDBName:         testDBName,
		PrometheusMetricsHost:  "localhost",
		PrometheusMetricsPort:  "2113",
		Timezone:               "UTC",
		StreakGoal:             config.DefaultStreakGoal,
		DatastoreTimeout:       config.DefaultDatastoreTimeout,
		UserLockTTL:            config.DefaultUserLockTTL,
		BadgeCatalogCacheTTL:   time.Second,
		WorkoutRateLimitPerMin: 1000,
	}
}

func (s *IntegrationTestSuite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "healthify-redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := redisResource.Close(); err != nil {
			fmt.Printf("redis teardown: %s\n", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	s.redisClient = redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort("localhost", redisPort),
	})
	if err := s.dockerPool.Retry(func() error {
		return s.redisClient.Ping(context.Background()).Err()
	}); err != nil {
		return "", fmt.Errorf("connect to redis: %s", err)
	}

	return redisPort, nil
}

func (s *IntegrationTestSuite) postgresSetup() (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=" + testDBName,
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := pgResource.Close(); err != nil {
			fmt.Printf("postgres teardown: %s\n", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/%s?sslmode=disable", pgPort, testDBName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", fmt.Errorf("open db conn: %s", err)
	}
	s.DB = db

	if err := s.dockerPool.Retry(db.Ping); err != nil {
		return "", fmt.Errorf("connect to db: %s", err)
	}

	return pgPort, nil
}

// seedBadges runs after the server applied the schema.
func (s *IntegrationTestSuite) seedBadges() error {
	for _, b := range badges.DefaultCatalog() {
		if _, err := s.DB.Exec(
			`INSERT INTO badge (name, description, icon, criteria_type, criteria_value, tier)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.Name, b.Description, b.Icon, b.CriteriaType, b.CriteriaValue, b.Tier,
		); err != nil {
			return fmt.Errorf("insert badge %s: %w", b.Name, err)
		}
	}
	return nil
}

// newTestUser inserts a user and issues a session token for it.
func (s *IntegrationTestSuite) newTestUser(ctx context.Context, username string) testUser {
	var id int
	err := s.DB.QueryRowContext(
		ctx,
		`INSERT INTO app_user (username, email) VALUES ($1, $2) RETURNING id`,
		username, username+"@healthify.test",
	).Scan(&id)
	s.Require().NoError(err)

	token, err := auth.NewAuthService(auth.DefaultTTL, s.redisClient).NewSession(ctx, id, time.Now())
	s.Require().NoError(err)

	return testUser{ID: id, Token: token}
}

func (s *IntegrationTestSuite) startServer(ctx context.Context, cfg *config.Config) {
	var err error
	s.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			RedisPassword:           "",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		s.cleanup()
		log.Fatalf("new server: %s", err)
	}

	s.server.Serve(cfg.Host, cfg.Port, nil)

	// wait for the listener
	if err := s.dockerPool.Retry(func() error {
		conn, err := net.Dial("tcp", net.JoinHostPort(serverHost, fmt.Sprint(serverPort)))
		if err != nil {
			return err
		}
		return conn.Close()
	}); err != nil {
		s.cleanup()
		log.Fatalf("server not listening: %s", err)
	}
}
