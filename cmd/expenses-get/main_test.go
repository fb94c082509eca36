package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/para-app/expenses-service/internal/auth"
	"github.com/para-app/expenses-service/internal/expense"
	"github.com/para-app/expenses-service/internal/httpapi"
	"github.com/para-app/expenses-service/internal/store"
)

type mockGetter struct {
	getFunc func(ctx context.Context, userUID, id string) (*expense.Expense, error)
}

func (m *mockGetter) GetByID(ctx context.Context, userUID, id string) (*expense.Expense, error) {
	return m.getFunc(ctx, userUID, id)
}

func testVerifier() auth.Verifier {
	return auth.PassthroughVerifier{UID: "user-123"}
}

func getRequest(id string) events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{
		Headers: map[string]string{"x-firebase-auth-token": "token"},
	}
	if id != "" {
		req.PathParameters = map[string]string{"expense_id": id}
	}
	return req
}

func TestHandler_ReturnsExpense(t *testing.T) {
	mock := &mockGetter{
		getFunc: func(ctx context.Context, userUID, id string) (*expense.Expense, error) {
			if userUID != "user-123" {
				t.Errorf("userUID = %q, want user-123", userUID)
			}
			if id != "exp-1" {
				t.Errorf("id = %q, want exp-1", id)
			}
			return &expense.Expense{
				ID:           "exp-1",
				Name:         "groceries",
				Amount:       json.Number("12.5"),
				Currency:     "EUR",
				TimestampUTC: "2024-01-15T10:30:00.000000Z",
			}, nil
		},
	}

	h := newHandler(mock, testVerifier())
	resp, err := h.handle(context.Background(), getRequest("exp-1"))
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["id"] != "exp-1" {
		t.Errorf("id = %v, want exp-1", body["id"])
	}
	if body["amount"] != 12.5 {
		t.Errorf("amount = %v (%T), want 12.5 as number", body["amount"], body["amount"])
	}
	if _, leaked := body["user_uid"]; leaked {
		t.Error("response leaks user_uid")
	}
}

func TestHandler_NotFound(t *testing.T) {
	mock := &mockGetter{
		getFunc: func(ctx context.Context, userUID, id string) (*expense.Expense, error) {
			return nil, store.ErrExpenseNotFound
		},
	}

	h := newHandler(mock, testVerifier())
	resp, _ := h.handle(context.Background(), getRequest("missing"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != httpapi.MsgNoExpenseWithThisID {
		t.Errorf("error = %q, want %q", body["error"], httpapi.MsgNoExpenseWithThisID)
	}
}

func TestHandler_MissingID(t *testing.T) {
	h := newHandler(&mockGetter{
		getFunc: func(ctx context.Context, userUID, id string) (*expense.Expense, error) {
			t.Fatal("GetByID must not be called")
			return nil, nil
		},
	}, testVerifier())

	resp, _ := h.handle(context.Background(), getRequest(""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	h := newHandler(&mockGetter{
		getFunc: func(ctx context.Context, userUID, id string) (*expense.Expense, error) {
			t.Fatal("GetByID must not be called")
			return nil, nil
		},
	}, testVerifier())

	resp, _ := h.handle(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"expense_id": "exp-1"},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", resp.StatusCode)
	}
}
