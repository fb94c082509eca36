// Package main implements the remove Lambda handler.
package main

import (
	"context"
	"encoding/json"
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

// ExpenseRemover defines the interface for deleting an expense.
type ExpenseRemover interface {
	Remove(ctx context.Context, userUID string, exp *expense.Expense) error
}

// handler implements the remove logic.
type handler struct {
	remover  ExpenseRemover
	verifier auth.Verifier
}

// newHandler creates a new handler.
func newHandler(remover ExpenseRemover, verifier auth.Verifier) *handler {
	return &handler{remover: remover, verifier: verifier}
}

// handle processes a remove request. The body is the expense to delete;
// its id and timestamp_utc identify the item.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-remove")
	ctx, span := tracer.Start(ctx, "ExpensesRemoveHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	if request.Body == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}

	var exp expense.Expense
	if err := json.Unmarshal([]byte(request.Body), &exp); err != nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}
	if exp.ID == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgIDPropertyMandatory), nil
	}

	if err := h.remover.Remove(ctx, userUID, &exp); err != nil {
		logger.Error("remove failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	return httpapi.JSON(http.StatusOK, map[string]any{}), nil
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

	h := newHandler(s, auth.ForStage(cfg))
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
