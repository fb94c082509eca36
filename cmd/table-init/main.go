// Command table-init creates the expenses table and its two local secondary
// indexes, then verifies the table answers. Intended for development and
// deployment bootstrap; safe to run against an existing table.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/para-app/expenses-service/internal/config"
	"github.com/para-app/expenses-service/internal/provision"
	"github.com/para-app/expenses-service/internal/store"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("FATAL: Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.LocalDynamoDBURL != "" {
			o.BaseEndpoint = &cfg.LocalDynamoDBURL
		}
	})

	if err := provision.EnsureTable(ctx, client, cfg.TableName); err != nil {
		logger.Error("FATAL: Failed to provision table",
			slog.String("table", cfg.TableName),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	s, err := store.New(client, cfg.TableName, store.Settings{
		MaxPageSize:   cfg.MaxPageSize,
		MaxSyncWindow: cfg.MaxSyncWindow,
	})
	if err != nil {
		logger.Error("FATAL: Failed to construct store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		logger.Error("FATAL: Table unreachable", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("table ready", slog.String("table", cfg.TableName))
}
