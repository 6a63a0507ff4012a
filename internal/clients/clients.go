package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a collaborator cannot resolve the requested id.
var ErrNotFound = errors.New("not found")

type ctxKey struct{}

// WithToken attaches the caller's bearer token to the context so outbound
// collaborator calls can forward it. Propagation is explicit, never ambient
// process state.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}

func newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
