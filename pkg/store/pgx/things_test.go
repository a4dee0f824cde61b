package pgx

import (
	"testing"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

func thingInputForTest(thingType ontology.ThingType, name string) store.ThingInput {
	return store.ThingInput{Type: thingType, Name: name}
}

func TestPriorStatusFromMetadata_RestoresRecordedStatus(t *testing.T) {
	status := priorStatusFromMetadata(ontology.Properties{"prior_status": "published"})
	if status != ontology.ThingStatusPublished {
		t.Fatalf("expected published, got %v", status)
	}
}

func TestPriorStatusFromMetadata_FallsBackToActive(t *testing.T) {
	cases := map[string]ontology.Properties{
		"missing key":     {},
		"nil metadata":    nil,
		"non-string":      {"prior_status": 7},
		"unknown status":  {"prior_status": "golden"},
		"archived itself": {"prior_status": "archived"},
	}
	for name, metadata := range cases {
		if status := priorStatusFromMetadata(metadata); status != ontology.ThingStatusActive {
			t.Fatalf("%s: expected active, got %v", name, status)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"50%":          `50\%`,
		"under_score":  `under\_score`,
		`back\slash`:   `back\\slash`,
		`%_\ combined`: `\%\_\\ combined`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestValidateThingInput_RejectsUnknownType(t *testing.T) {
	err := validateThingInput(thingInputForTest("starship", "Enterprise"))
	if err == nil {
		t.Fatalf("expected unknown thing type to be rejected")
	}
}

func TestValidateThingInput_RejectsUnknownStatus(t *testing.T) {
	input := thingInputForTest("course", "Intro to Go")
	input.Status = "frozen"
	if err := validateThingInput(input); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestValidateThingInput_AcceptsDefaults(t *testing.T) {
	input := thingInputForTest("course", "Intro to Go")
	if err := validateThingInput(input); err != nil {
		t.Fatalf("expected valid input to be accepted, got %v", err)
	}
}
