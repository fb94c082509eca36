// Package main implements the update Lambda handler.
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

// ExpenseUpdater defines the interface for replacing an expense with a newer
// version of itself.
type ExpenseUpdater interface {
	Update(ctx context.Context, userUID string, updated, previous *expense.Expense) (*expense.Expense, error)
}

// updateRequest is the wire shape of an update call. The previous state is
// required so the store can detect a sort key move and verify identity.
type updateRequest struct {
	Updated       map[string]any `json:"updated"`
	PreviousState map[string]any `json:"previous_state"`
}

// handler implements the update logic.
type handler struct {
	updater   ExpenseUpdater
	verifier  auth.Verifier
	validator *expense.Validator
}

// newHandler creates a new handler.
func newHandler(updater ExpenseUpdater, verifier auth.Verifier) *handler {
	return &handler{
		updater:   updater,
		verifier:  verifier,
		validator: expense.NewValidator(),
	}
}

// handle processes an update request.
func (h *handler) handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	tracer := otel.Tracer("expenses-update")
	ctx, span := tracer.Start(ctx, "ExpensesUpdateHandler")
	defer span.End()

	userUID, err := httpapi.UserUID(ctx, request, h.verifier)
	if err != nil {
		return httpapi.Error(http.StatusUnauthorized, httpapi.MsgInvalidToken), nil
	}

	if request.Body == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}

	var payload updateRequest
	if err := json.Unmarshal([]byte(request.Body), &payload); err != nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgEmptyRequestBody), nil
	}
	if len(payload.Updated) == 0 || len(payload.PreviousState) == 0 {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgPreviousStateMissing), nil
	}

	updatedID, _ := payload.Updated["id"].(string)
	previousID, _ := payload.PreviousState["id"].(string)
	if updatedID == "" || previousID == "" {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgIDPropertyMandatory), nil
	}
	if updatedID != previousID {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgIDsOfExpensesDontMatch), nil
	}

	for _, candidate := range []map[string]any{payload.Updated, payload.PreviousState} {
		if ok, _ := h.validator.Validate(candidate); !ok {
			return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidExpense), nil
		}
	}

	updated, previous, err := decodeExpenses(request.Body)
	if err != nil {
		return httpapi.Error(http.StatusBadRequest, httpapi.MsgInvalidExpense), nil
	}

	result, err := h.updater.Update(ctx, userUID, updated, previous)
	if err != nil {
		logger.Error("update failed", slog.String("error", err.Error()))
		return httpapi.FromStoreError(err), nil
	}

	return httpapi.JSON(http.StatusOK, result), nil
}

// decodeExpenses re-reads the body into typed records once validation of the
// raw maps has passed.
func decodeExpenses(body string) (updated, previous *expense.Expense, err error) {
	var typed struct {
		Updated       expense.Expense `json:"updated"`
		PreviousState expense.Expense `json:"previous_state"`
	}
	if err := json.Unmarshal([]byte(body), &typed); err != nil {
		return nil, nil, err
	}
	return &typed.Updated, &typed.PreviousState, nil
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
