package pgx

import (
	"errors"
	"strings"
	"testing"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

func TestValidateSlug_Accepts(t *testing.T) {
	for _, slug := range []string{"a", "creator-hub", "org_42", "0start", strings.Repeat("x", 100)} {
		if err := validateSlug(slug); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", slug, err)
		}
	}
}

func TestValidateSlug_Rejects(t *testing.T) {
	for _, slug := range []string{"", "Creator-Hub", "-leading", "_leading", "has space", "dot.sep", strings.Repeat("x", 101)} {
		err := validateSlug(slug)
		if err == nil {
			t.Fatalf("expected %q to be rejected", slug)
		}
		var verr *store.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError for %q, got %T", slug, err)
		}
		if verr.Field != "slug" {
			t.Fatalf("expected field slug, got %q", verr.Field)
		}
	}
}

func TestValidateName_CountsRunesNotBytes(t *testing.T) {
	// 500 two-byte runes exceed 500 bytes but stay within the bound.
	name := strings.Repeat("é", ontology.MaxNameLength)
	if err := validateName("name", name); err != nil {
		t.Fatalf("expected %d-rune name to be accepted, got %v", ontology.MaxNameLength, err)
	}
	if err := validateName("name", name+"é"); err == nil {
		t.Fatalf("expected %d-rune name to be rejected", ontology.MaxNameLength+1)
	}
}

func TestValidateName_RejectsBlank(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		if err := validateName("name", name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestValidateStrength(t *testing.T) {
	if err := validateStrength(nil); err != nil {
		t.Fatalf("expected nil strength to be accepted, got %v", err)
	}
	for _, v := range []float64{0, 0.5, 1} {
		if err := validateStrength(&v); err != nil {
			t.Fatalf("expected strength %v to be accepted, got %v", v, err)
		}
	}
	for _, v := range []float64{-0.01, 1.01, 42} {
		if err := validateStrength(&v); err == nil {
			t.Fatalf("expected strength %v to be rejected", v)
		}
	}
}

func TestValidateEventInput_UnknownType(t *testing.T) {
	err := validateEventInput("group_exploded", nil)
	if err == nil {
		t.Fatalf("expected unknown event type to be rejected")
	}
}

func TestValidateEventInput_ProtocolChecked(t *testing.T) {
	err := validateEventInput("payment_event", ontology.Properties{"protocol": "x402"})
	if err != nil {
		t.Fatalf("expected known protocol to be accepted, got %v", err)
	}

	err = validateEventInput("payment_event", ontology.Properties{"protocol": "smtp"})
	if err == nil {
		t.Fatalf("expected unknown protocol to be rejected")
	}

	err = validateEventInput("payment_event", ontology.Properties{"protocol": 42})
	if err == nil {
		t.Fatalf("expected non-string protocol to be rejected")
	}
}

func TestValidateEventInput_ProtocolOptional(t *testing.T) {
	// The discriminator is optional on consolidated families and ignored
	// entirely on other event types.
	if err := validateEventInput("payment_event", ontology.Properties{"amount": 5}); err != nil {
		t.Fatalf("expected metadata without protocol to be accepted, got %v", err)
	}
	if err := validateEventInput("user_login", ontology.Properties{"protocol": "smtp"}); err != nil {
		t.Fatalf("expected protocol to be ignored on plain events, got %v", err)
	}
}
