package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/velomont/trainlog/internal/athlete"
	"github.com/velomont/trainlog/internal/config"
	"github.com/velomont/trainlog/internal/db"
	"github.com/velomont/trainlog/internal/ingest"
	"github.com/velomont/trainlog/internal/logging"
	"github.com/velomont/trainlog/internal/telemetry/metrics"
	"github.com/velomont/trainlog/internal/trainload"
	"github.com/velomont/trainlog/internal/workout"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	athleteID := flag.Int("athlete", 0, "athlete id to operate on")
	ingestFile := flag.String("ingest-file", "", "path to a raw activity JSON file to ingest")
	summaryFrom := flag.String("from", "", "summary range start (YYYY-MM-DD)")
	summaryTo := flag.String("to", "", "summary range end (YYYY-MM-DD)")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	if cfg.SentryEnabled && sentryDSN == "" {
		log.Errorf("sentry enabled but DSN not set, use SENTRY_DSN env var to set it")
	}
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "trainlog",
	})

	if *athleteID <= 0 {
		log.Fatalf("athlete id not set, use -athlete")
	}

	ctx := context.Background()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.DBHost,
		DBPort:         cfg.DBPort,
		DBName:         cfg.DBName,
		TracingEnabled: cfg.TracingEnabled,
	})
	if err != nil {
		log.Fatalf("create db pool: %s", err)
	}
	defer dbPool.Close()

	redisPassword := os.Getenv("TRAINLOG_REDIS_PASS")
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: redisPassword,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	metricsManager := metrics.NewManager("trainlog", "core", prometheus.NewRegistry())

	switch {
	case *ingestFile != "":
		runIngest(ctx, dbPool, metricsManager, *athleteID, *ingestFile)
	case *summaryFrom != "" && *summaryTo != "":
		runSummary(ctx, dbPool, redisClient, metricsManager, cfg, *athleteID, *summaryFrom, *summaryTo)
	default:
		log.Fatalf("nothing to do: use -ingest-file, or -from and -to")
	}
}

func runIngest(
	ctx context.Context,
	dbPool *pgxpool.Pool,
	metricsManager *metrics.Manager,
	athleteID int,
	rawActivityPath string,
) {
	rawBytes, err := os.ReadFile(rawActivityPath)
	if err != nil {
		log.Fatalf("read raw activity file: %s", err)
	}
	var raw ingest.RawActivity
	if err := json.Unmarshal(rawBytes, &raw); err != nil {
		log.Fatalf("unmarshal raw activity: %s", err)
	}

	orchestrator := ingest.NewOrchestrator(
		athlete.NewRepo(dbPool),
		workout.NewRepo(dbPool),
		metricsManager,
	)

	result, err := orchestrator.Ingest(ctx, athleteID, raw)
	if err != nil {
		log.Fatalf("ingest activity: %s", err)
	}

	log.Infof("stored workout %d [%s]", result.Workout.ID, result.Workout.Activity)
	for _, record := range result.Records {
		if record.Duration != "" {
			log.Infof("new record: %s %s -> %d", record.Metric, record.Duration, record.Value)
		} else {
			log.Infof("new record: %s -> %d", record.Metric, record.Value)
		}
	}
}

func runSummary(
	ctx context.Context,
	dbPool *pgxpool.Pool,
	redisClient *redis.Client,
	metricsManager *metrics.Manager,
	cfg *config.Config,
	athleteID int,
	fromStr, toStr string,
) {
	from, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		log.Fatalf("parse -from: %s", err)
	}
	to, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		log.Fatalf("parse -to: %s", err)
	}

	workoutsRepo := workout.NewRepo(dbPool)
	engine := trainload.NewEngine(workoutsRepo)
	cache := trainload.NewSummaryCache(redisClient, time.Duration(cfg.SummaryCacheTTL)*time.Second)
	service := trainload.NewService(workoutsRepo, engine, cache, metricsManager)

	summary, err := service.GetSummary(ctx, athleteID, from, to)
	if err != nil {
		log.Fatalf("get summary: %s", err)
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Fatalf("marshal summary: %s", err)
	}
	fmt.Println(string(summaryJSON))
}
