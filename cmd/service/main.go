package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/healthify/internal"
	"github.com/2beens/healthify/internal/config"
	"github.com/2beens/healthify/internal/logging"

	log "github.com/sirupsen/logrus"
)

// envSettings are the values kept out of config.toml.
type envSettings struct {
	sentryDSN        string
	redisPassword    string
	postgresPassword string
	allowedOrigins   []string
	honeycombEnabled bool
}

func readEnvSettings() envSettings {
	s := envSettings{
		sentryDSN:        os.Getenv("SENTRY_DSN"),
		redisPassword:    os.Getenv("HEALTHIFY_REDIS_PASS"),
		postgresPassword: os.Getenv("HEALTHIFY_POSTGRES_PASS"),
		honeycombEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	}
	if origins := os.Getenv("HEALTHIFY_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.allowedOrigins = append(s.allowedOrigins, o)
			}
		}
	}
	return s
}

func (s envSettings) warnMissing() {
	if s.redisPassword == "" {
		log.Warnln("redis password not set. use HEALTHIFY_REDIS_PASS")
	}
	if len(s.allowedOrigins) == 0 {
		log.Warnln("HEALTHIFY_ALLOWED_ORIGINS not set, only local dev origins are allowed")
	}
	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}
	if !s.honeycombEnabled {
		log.Debugln("honeycomb tracing disabled")
	} else if os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("HONEYCOMB_API_KEY env var not set")
	}
}

func main() {
	fmt.Println("starting healthify ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	settings := readEnvSettings()
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        settings.sentryDSN,
		SentryServerName: "healthify-service",
	})

	log.Warnf("---->> running in [%s] environment, port %d, calendar days in [%s]", cfg.Environment, cfg.Port, cfg.Timezone)
	settings.warnMissing()

	ctx, cancel := context.WithCancel(context.Background())
	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:                  cfg,
		RedisPassword:           settings.redisPassword,
		PostgresPassword:        settings.postgresPassword,
		HoneycombTracingEnabled: settings.honeycombEnabled,
	})
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	server.Serve(cfg.Host, cfg.Port, settings.allowedOrigins)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}
