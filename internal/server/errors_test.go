package server

import (
	"net/http"
	"testing"

	authdomain "github.com/AndreaSpaggiari/sito-andrea/internal/auth/domain"
	"github.com/AndreaSpaggiari/sito-andrea/internal/authorization"
	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
	permissiondomain "github.com/AndreaSpaggiari/sito-andrea/internal/permission/domain"
	workorderdomain "github.com/AndreaSpaggiari/sito-andrea/internal/workorder/domain"
)

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"bad credentials", authdomain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired session", authdomain.ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", authorization.ErrForbidden, http.StatusForbidden},
		{"section not approved", permissiondomain.ErrInvalidState, http.StatusForbidden},
		{"double start", workorderdomain.ErrInvalidTransition, http.StatusConflict},
		{"missing successor machine", workorderdomain.ErrMissingTarget, http.StatusUnprocessableEntity},
		{"unknown order", workorderdomain.ErrNotFound, http.StatusNotFound},
		{"bad id", workorderdomain.ErrInvalidID, http.StatusBadRequest},
		{"extraction failure", intakedomain.ErrExtractionFailed, http.StatusBadGateway},
		{"bad image type", intakedomain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"no extractor", intakedomain.ErrNotConfigured, http.StatusServiceUnavailable},
		{"throttled", ErrTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, status)
			}
			if payload.Type == "" {
				t.Fatal("expected error type in payload")
			}
		})
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	if kind, _ := classifyErrorForLog(authorization.ErrForbidden); kind != "auth_error" {
		t.Fatalf("expected auth_error, got %s", kind)
	}
	if kind, _ := classifyErrorForLog(workorderdomain.ErrInvalidID); kind != "client_error" {
		t.Fatalf("expected client_error, got %s", kind)
	}
	if kind, _ := classifyErrorForLog(nil); kind != "server_error" {
		t.Fatalf("expected server_error, got %s", kind)
	}
}
