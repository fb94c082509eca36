// Package main implements the sync Lambda handler.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda/xrayconfig"
	"go.opentelemetry.io/otel"

	"github.com/para-app/expenses-service/internal/auth"
	"github.com/para-app/expenses-service/internal/config"
	"github.com/para-app/expenses-service/internal/expense"
	"github.com/para-app/expenses-service/internal/httpapi"
	"github.com/para-app/expenses-service/internal/store"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// ExpenseSyncer defines the interface for reconciling a client's local state
// against the server.
type ExpenseSyncer interface {
	Sync(ctx context.Context, userUID string, clientState map[string]store.SyncEntry) (*store.SyncResult, error)
}

// handler implements the sync logic.
type handler struct {
	syncer         ExpenseSyncer
	verifier       auth.Verifier
	maxRequestSize int
}

// newHandler creates a new handler.
func newHandler(syncer ExpenseSyncer, verifier auth.Verifier, maxRequestSize int) *handler {
	return &handler{syncer: syncer, verifier: verifier, maxRequestSize: maxRequestSize}
}

// handle processes a sync request. The body maps expense ids to the client's
// last known timestamps for them; an empty object is a valid first sync.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-sync")
	ctx, span := tracer.Start(ctx, "ExpensesSyncHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	if request.Body == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}

	var clientState map[string]store.SyncEntry
	if err := json.Unmarshal([]byte(request.Body), &clientState); err != nil || clientState == nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}

	if len(clientState) > h.maxRequestSize {
		return httpapi.Error(http.StatusRequestEntityTooLarge,
			fmt.Sprintf(httpapi.MsgBatchSizeExceeded, h.maxRequestSize)), nil
	}

	for id, entry := range clientState {
		if id == "" ||
			!expense.IsValidUTCTimestamp(entry.TimestampUTCUpdated) ||
			!expense.IsValidUTCTimestamp(entry.TimestampUTC) {
			return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidSyncEntry), nil
		}
	}

	result, err := h.syncer.Sync(ctx, userUID, clientState)
	if err != nil {
		logger.Error("sync failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	return httpapi.JSON(http.StatusOK, result), nil
}

func main() {
	ctx := context.Background()

	tp, err := xrayconfig.NewTracerProvider(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to initialize tracer provider", slog.String("error", err.Error()))
		panic(err)
	}
	otel.SetTracerProvider(tp)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("FATAL: Failed to load configuration", slog.String("error", err.Error()))
		panic(err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		panic(err)
	}

	client := dynamodb.NewFromConfig(awsCfg, dynamoOptions(cfg))
	s, err := store.New(client, cfg.TableName, store.Settings{
		MaxPageSize:   cfg.MaxPageSize,
		MaxSyncWindow: cfg.MaxSyncWindow,
	})
	if err != nil {
		logger.Error("FATAL: Failed to construct store", slog.String("error", err.Error()))
		panic(err)
	}

	if !cfg.PingLazy {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			logger.Error("FATAL: Table unreachable", slog.String("error", err.Error()))
			panic(err)
		}
	}

	h := newHandler(s, auth.ForStage(cfg), cfg.MaxSyncRequestSize)
	lambda.Start(otellambda.InstrumentHandler(h.handle, xrayconfig.WithRecommendedOptions(tp)...))
}

// dynamoOptions points the client at a local endpoint on dev/test stages.
func dynamoOptions(cfg *config.Config) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		if cfg.LocalDynamoDBURL != "" {
			o.BaseEndpoint = &cfg.LocalDynamoDBURL
		}
	}
}
