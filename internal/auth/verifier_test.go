package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/para-app/expenses-service/internal/config"
)

func TestForStage(t *testing.T) {
	dev := &config.Config{Stage: config.StageDevelopment, TestUserUID: "fake firebase uid"}
	if _, ok := ForStage(dev).(PassthroughVerifier); !ok {
		t.Errorf("ForStage(development) = %T, want PassthroughVerifier", ForStage(dev))
	}

	prod := &config.Config{Stage: config.StageProduction, FirebaseProjectID: "para-prod"}
	if _, ok := ForStage(prod).(*FirebaseVerifier); !ok {
		t.Errorf("ForStage(production) = %T, want *FirebaseVerifier", ForStage(prod))
	}
}

func TestPassthroughVerifier(t *testing.T) {
	v := PassthroughVerifier{UID: "fake firebase uid"}

	uid, err := v.Verify(context.Background(), "any token at all")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if uid != "fake firebase uid" {
		t.Errorf("uid = %q, want the configured test uid", uid)
	}

	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(\"\") error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestFirebaseVerifier(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantUID string
		wantErr bool
	}{
		{"valid token", http.StatusOK, `{"aud":"para-prod","sub":"user-123"}`, "user-123", false},
		{"wrong audience", http.StatusOK, `{"aud":"other-project","sub":"user-123"}`, "", true},
		{"missing subject", http.StatusOK, `{"aud":"para-prod"}`, "", true},
		{"rejected token", http.StatusBadRequest, `{"error":"invalid_token"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("id_token") != "some-token" {
					t.Errorf("id_token = %q, want some-token", r.URL.Query().Get("id_token"))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			v := NewFirebaseVerifier("para-prod")
			v.endpoint = server.URL

			uid, err := v.Verify(context.Background(), "some-token")
			if tt.wantErr {
				if err == nil {
					t.Fatal("Verify() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if uid != tt.wantUID {
				t.Errorf("uid = %q, want %q", uid, tt.wantUID)
			}
		})
	}
}

func TestFirebaseVerifier_TracesTokenInfoCall(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"aud":"para-prod","sub":"user-123"}`))
	}))
	defer server.Close()

	v := NewFirebaseVerifier("para-prod")
	v.endpoint = server.URL
	if _, err := v.Verify(context.Background(), "some-token"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if len(recorder.Ended()) == 0 {
		t.Error("no spans recorded for the tokeninfo request")
	}
}

func TestFirebaseVerifier_EmptyToken(t *testing.T) {
	v := NewFirebaseVerifier("para-prod")
	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(\"\") error = %v, want %v", err, ErrInvalidToken)
	}
}
