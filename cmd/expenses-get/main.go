// Package main implements the get_expense_by_id Lambda handler.
package main

import (
	"context"
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

// ExpenseGetter defines the interface for fetching an expense by id.
type ExpenseGetter interface {
	GetByID(ctx context.Context, userUID, id string) (*expense.Expense, error)
}

// handler implements the get_expense_by_id logic.
type handler struct {
	getter   ExpenseGetter
	verifier auth.Verifier
}

// newHandler creates a new handler.
func newHandler(getter ExpenseGetter, verifier auth.Verifier) *handler {
	return &handler{getter: getter, verifier: verifier}
}

// handle processes a get_expense_by_id request.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-get")
	ctx, span := tracer.Start(ctx, "ExpensesGetHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	id := request.PathParameters["expense_id"]
	if id == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgIDPropertyMandatory), nil
	}

	exp, err := h.getter.GetByID(ctx, userUID, id)
	if err != nil {
		logger.Error("get by id failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	return httpapi.JSON(http.StatusOK, exp), nil
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
