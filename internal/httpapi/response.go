package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/para-app/expenses-service/internal/auth"
	"github.com/para-app/expenses-service/internal/config"
	"github.com/para-app/expenses-service/internal/store"
)

// JSON builds a response with a JSON-encoded body.
func JSON(status int, body any) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		return Error(http.StatusInternalServerError, MsgInternalError)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}
}

// Error builds an error response carrying only the named message.
func Error(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// FromStoreError maps a store error condition to its response. Unrecognized
// errors become an opaque 500; the caller logs the detail.
func FromStoreError(err error) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, store.ErrExpenseNotFound):
		return Error(http.StatusNotFound, MsgNoExpenseWithThisID)
	case errors.Is(err, store.ErrIDMismatch):
		return Error(http.StatusBadRequest, MsgIDsOfExpensesDontMatch)
	case errors.Is(err, store.ErrIDForbidden):
		return Error(http.StatusBadRequest, MsgIDPropertyForbidden)
	case errors.Is(err, store.ErrUnqueryableProperty):
		return Error(http.StatusBadRequest, MsgInvalidQueryParams)
	case errors.Is(err, store.ErrDuplicateTimestamp):
		return Error(http.StatusConflict, MsgDuplicateTimestamp)
	case errors.Is(err, store.ErrThroughputExceeded):
		return Error(http.StatusRequestEntityTooLarge, MsgThroughputExceeded)
	default:
		return Error(http.StatusInternalServerError, MsgInternalError)
	}
}

// UserUID authenticates the request and returns the caller's partition uid.
// API Gateway does not canonicalize header names, so the lookup is
// case-insensitive.
func UserUID(ctx context.Context, request events.APIGatewayProxyRequest, verifier auth.Verifier) (string, error) {
	var token string
	for name, value := range request.Headers {
		if strings.EqualFold(name, config.AuthHeaderName) {
			token = value
			break
		}
	}
	return verifier.Verify(ctx, token)
}
