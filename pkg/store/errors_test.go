package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("creating thing: %w", NewValidationError("name", "must not be empty"))
	var verr *ValidationError
	if !errors.As(wrapped, &verr) {
		t.Fatalf("expected ValidationError through wrap, got %v", wrapped)
	}
	if verr.Field != "name" {
		t.Fatalf("expected field name, got %q", verr.Field)
	}
}

func TestErrorMessages(t *testing.T) {
	cases := map[error]string{
		NewValidationError("slug", "must be at most %d characters", 100): "validation failed on slug: must be at most 100 characters",
		NewNotFoundError("thing", "th-1"):                                "thing th-1 not found",
		NewUnauthorizedError("group:create", "role %s cannot", "viewer"): "not authorized to group:create: role viewer cannot",
		NewDuplicateError("group", "slug", "creators"):                   `group with slug "creators" already exists`,
		NewQuotaExceededError("things", 1000, 1000):                      "quota exceeded for things: limit 1000, current 1000",
	}
	for err, expected := range cases {
		if err.Error() != expected {
			t.Fatalf("expected %q, got %q", expected, err.Error())
		}
	}
}
