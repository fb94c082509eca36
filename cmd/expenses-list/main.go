// Package main implements the get_expenses_list Lambda handler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
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
	"github.com/para-app/expenses-service/internal/dynamo"
	"github.com/para-app/expenses-service/internal/expense"
	"github.com/para-app/expenses-service/internal/httpapi"
	"github.com/para-app/expenses-service/internal/store"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

const defaultBatchSize = 10

// ExpenseLister defines the interface for listing expenses.
type ExpenseLister interface {
	List(ctx context.Context, userUID, property, value string, direction store.Direction, limit int, inclusive bool) ([]*expense.Expense, error)
}

// handler implements the get_expenses_list logic.
type handler struct {
	lister      ExpenseLister
	verifier    auth.Verifier
	validator   *expense.Validator
	maxPageSize int
}

// newHandler creates a new handler.
func newHandler(lister ExpenseLister, verifier auth.Verifier, maxPageSize int) *handler {
	return &handler{
		lister:      lister,
		verifier:    verifier,
		validator:   expense.NewValidator(),
		maxPageSize: maxPageSize,
	}
}

// handle processes a get_expenses_list request.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-list")
	ctx, span := tracer.Start(ctx, "ExpensesListHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	params := request.QueryStringParameters

	property := params["property"]
	if property == "" {
		property = dynamo.AttrTimestampUTC
	}

	direction := store.Descending
	if raw := params["ordering_direction"]; raw != "" {
		parsed, ok := store.ParseDirection(raw)
		if !ok {
			return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidOrderParam), nil
		}
		direction = parsed
	}

	batchSize := defaultBatchSize
	if raw := params["batch_size"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidBatchSize), nil
		}
		batchSize = n
	}
	if batchSize > h.maxPageSize {
		return httpapi.Error(http.StatusRequestEntityTooLarge,
			fmt.Sprintf(httpapi.MsgBatchSizeExceeded, h.maxPageSize)), nil
	}

	value := params["property_value"]
	if value != "" && !h.validator.ValidateField(value, property) {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidQueryParams), nil
	}

	inclusive := params["inclusive_start"] == "true"

	expenses, err := h.lister.List(ctx, userUID, property, value, direction, batchSize, inclusive)
	if err != nil {
		logger.Error("list query failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	return httpapi.JSON(http.StatusOK, expenses), nil
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

	h := newHandler(s, auth.ForStage(cfg), cfg.MaxPageSize)
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
