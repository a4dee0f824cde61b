package pgx

import (
	"errors"
	"testing"
	"time"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

func connectionInputForTest() store.ConnectionInput {
	return store.ConnectionInput{
		FromID: "thing-a",
		ToID:   "thing-b",
		Type:   ontology.ConnectionTypeMemberOf,
	}
}

func TestValidateConnectionInput_Accepts(t *testing.T) {
	input := connectionInputForTest()
	strength := 0.75
	input.Strength = &strength
	if err := validateConnectionInput(input); err != nil {
		t.Fatalf("expected valid input to be accepted, got %v", err)
	}
}

func TestValidateConnectionInput_RejectsSelfLoop(t *testing.T) {
	input := connectionInputForTest()
	input.ToID = input.FromID
	err := validateConnectionInput(input)
	if err == nil {
		t.Fatalf("expected self-loop to be rejected")
	}
	var verr *store.ValidationError
	if !errors.As(err, &verr) || verr.Field != "toId" {
		t.Fatalf("expected ValidationError on toId, got %v", err)
	}
}

func TestValidateConnectionInput_RejectsUnknownType(t *testing.T) {
	input := connectionInputForTest()
	input.Type = "frenemy_of"
	if err := validateConnectionInput(input); err == nil {
		t.Fatalf("expected unknown connection type to be rejected")
	}
}

func TestValidateConnectionInput_RejectsInvertedValidity(t *testing.T) {
	input := connectionInputForTest()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	input.ValidFrom = &from
	input.ValidTo = &to
	err := validateConnectionInput(input)
	if err == nil {
		t.Fatalf("expected inverted validity window to be rejected")
	}
	var verr *store.ValidationError
	if !errors.As(err, &verr) || verr.Field != "validTo" {
		t.Fatalf("expected ValidationError on validTo, got %v", err)
	}
}

func TestValidateConnectionInput_AcceptsOpenEndedValidity(t *testing.T) {
	input := connectionInputForTest()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	input.ValidFrom = &from
	if err := validateConnectionInput(input); err != nil {
		t.Fatalf("expected open-ended validity to be accepted, got %v", err)
	}
}

func TestEndpointError_ReportsFromFirst(t *testing.T) {
	input := connectionInputForTest()
	missing := map[string]struct{}{"thing-a": {}, "thing-b": {}}
	err := endpointError(missing, input, "grp-1")
	var verr *store.ValidationError
	if !errors.As(err, &verr) || verr.Field != "fromId" {
		t.Fatalf("expected ValidationError on fromId, got %v", err)
	}
}

func TestEndpointError_ReportsTo(t *testing.T) {
	input := connectionInputForTest()
	missing := map[string]struct{}{"thing-b": {}}
	err := endpointError(missing, input, "grp-1")
	var verr *store.ValidationError
	if !errors.As(err, &verr) || verr.Field != "toId" {
		t.Fatalf("expected ValidationError on toId, got %v", err)
	}
}

func TestEndpointError_NilWhenAllPresent(t *testing.T) {
	if err := endpointError(map[string]struct{}{}, connectionInputForTest(), "grp-1"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEdgeKey(t *testing.T) {
	got := edgeKey("thing-a", "thing-b", ontology.ConnectionTypeOwns)
	if got != "thing-a/thing-b/owns" {
		t.Fatalf("expected thing-a/thing-b/owns, got %q", got)
	}
}
