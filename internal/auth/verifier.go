// Package auth verifies caller identity tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/para-app/expenses-service/internal/config"
)

// ErrInvalidToken means the token was missing, malformed, expired, or issued
// for a different project.
var ErrInvalidToken = errors.New("invalid identity token")

// Verifier checks an identity token and yields the caller's user uid. The
// implementation is chosen once at construction time, never swapped at
// runtime.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// ForStage selects the verifier for a stage: real token verification on live
// stages, the passthrough elsewhere.
func ForStage(cfg *config.Config) Verifier {
	if cfg.Live() {
		return NewFirebaseVerifier(cfg.FirebaseProjectID)
	}
	return PassthroughVerifier{UID: cfg.TestUserUID}
}

const tokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// FirebaseVerifier validates Firebase ID tokens against Google's tokeninfo
// endpoint and checks the audience claim.
type FirebaseVerifier struct {
	client    *http.Client
	projectID string
	endpoint  string
}

// NewFirebaseVerifier creates a FirebaseVerifier for one Firebase project.
func NewFirebaseVerifier(projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   5 * time.Second,
		},
		projectID: projectID,
		endpoint:  tokenInfoEndpoint,
	}
}

// Verify resolves the token to a user uid.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(token), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrInvalidToken
	}

	var claims struct {
		Aud string `json:"aud"`
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return "", fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if claims.Aud != v.projectID || claims.Sub == "" {
		return "", ErrInvalidToken
	}
	return claims.Sub, nil
}

// PassthroughVerifier accepts any non-empty token and hands out a fixed uid.
// Used on development and testing stages only.
type PassthroughVerifier struct {
	UID string
}

// Verify returns the configured uid.
func (v PassthroughVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	return v.UID, nil
}
