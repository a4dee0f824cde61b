package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trellishq/trellis/backend/pkg/store"
)

func renderError(t *testing.T, err error) (int, ErrorBody) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := JSONError(c, err); err != nil {
		t.Fatalf("JSONError returned %v", err)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestJSONError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantField  string
	}{
		{
			name:       "validation maps to 400",
			err:        store.NewValidationError("slug", "must not be empty"),
			wantStatus: http.StatusBadRequest,
			wantType:   "validation",
			wantField:  "slug",
		},
		{
			name:       "not found maps to 404",
			err:        store.NewNotFoundError("thing", "th_123"),
			wantStatus: http.StatusNotFound,
			wantType:   "not_found",
		},
		{
			name:       "unauthorized maps to 403",
			err:        store.NewUnauthorizedError("append event", "actor is not a person"),
			wantStatus: http.StatusForbidden,
			wantType:   "unauthorized",
		},
		{
			name:       "duplicate maps to 409",
			err:        store.NewDuplicateError("group", "slug", "acme"),
			wantStatus: http.StatusConflict,
			wantType:   "duplicate",
			wantField:  "slug",
		},
		{
			name:       "quota maps to 429",
			err:        store.NewQuotaExceededError("things", 100, 100),
			wantStatus: http.StatusTooManyRequests,
			wantType:   "quota_exceeded",
		},
		{
			name:       "unknown maps to 500",
			err:        fmt.Errorf("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderError(t, tt.err)
			if status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, status)
			}
			if body.Type != tt.wantType {
				t.Fatalf("expected type %q, got %q", tt.wantType, body.Type)
			}
			if body.Field != tt.wantField {
				t.Fatalf("expected field %q, got %q", tt.wantField, body.Field)
			}
			if body.Error == "" {
				t.Fatal("expected a non-empty error message")
			}
		})
	}
}

func TestJSONError_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create group: %w", store.NewDuplicateError("group", "slug", "acme"))

	status, body := renderError(t, wrapped)
	if status != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", status)
	}
	if body.Type != "duplicate" {
		t.Fatalf("expected type duplicate, got %q", body.Type)
	}
}

func TestJSONError_HidesInternalDetail(t *testing.T) {
	_, body := renderError(t, fmt.Errorf("pq: password authentication failed for user"))

	if body.Error != "Internal server error" {
		t.Fatalf("expected generic message, got %q", body.Error)
	}
}
