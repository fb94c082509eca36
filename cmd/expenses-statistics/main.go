// Package main implements the statistics Lambda handler.
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
	"github.com/shopspring/decimal"
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

// maxTimeWindow bounds the [from, to) range of a single statistics query.
const maxTimeWindow = 366 * 24 * time.Hour

// StatisticsProvider defines the interface for per-currency aggregation.
type StatisticsProvider interface {
	Statistics(ctx context.Context, userUID, from, to string) (map[string]decimal.Decimal, error)
}

// handler implements the statistics logic.
type handler struct {
	provider  StatisticsProvider
	verifier  auth.Verifier
	validator *expense.Validator
}

// newHandler creates a new handler.
func newHandler(provider StatisticsProvider, verifier auth.Verifier) *handler {
	return &handler{
		provider:  provider,
		verifier:  verifier,
		validator: expense.NewValidator(),
	}
}

// handle processes a statistics request over the [from, to) window given as
// query parameters.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-statistics")
	ctx, span := tracer.Start(ctx, "ExpensesStatisticsHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	params := request.QueryStringParameters
	from := params["from"]
	to := params["to"]
	if !h.validator.ValidateField(from, "timestamp_utc") || !h.validator.ValidateField(to, "timestamp_utc") {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidQueryParams), nil
	}

	fromTime, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidQueryParams), nil
	}
	toTime, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidQueryParams), nil
	}
	if !fromTime.Before(toTime) {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidQueryParams), nil
	}
	if toTime.Sub(fromTime) > maxTimeWindow {
		return httpapi.Error(http.StatusRequestEntityTooLarge, httpapi.MsgMaximumTimeWindowExceeded), nil
	}

	sums, err := h.provider.Statistics(ctx, userUID, from, to)
	if err != nil {
		logger.Error("statistics query failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	// json.Number passes the decimal literal through unquoted, so the
	// rounded sums reach the caller exactly as computed.
	body := make(map[string]json.Number, len(sums))
	for currency, sum := range sums {
		body[currency] = json.Number(sum.String())
	}
	return httpapi.JSON(http.StatusOK, body), nil
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
