package routes

import (
	"testing"

	"github.com/trellishq/trellis/backend/pkg/ontology"
)

func TestDecodeThingSeed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []string
	}{
		{
			name:      "bare array",
			input:     `[{"type":"person","name":"Ada"},{"type":"product","name":"Engine"}]`,
			wantNames: []string{"Ada", "Engine"},
		},
		{
			name:      "wrapped in things key",
			input:     `{"things":[{"type":"person","name":"Ada"}]}`,
			wantNames: []string{"Ada"},
		},
		{
			name:      "sloppy export with trailing comma",
			input:     `[{type: 'person', name: 'Ada'},]`,
			wantNames: []string{"Ada"},
		},
		{
			name:      "stringified array",
			input:     `"[{\"type\":\"person\",\"name\":\"Ada\"}]"`,
			wantNames: []string{"Ada"},
		},
		{
			name:      "empty array",
			input:     `[]`,
			wantNames: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inputs, err := decodeThingSeed(tc.input)
			if err != nil {
				t.Fatalf("decodeThingSeed() error = %v", err)
			}
			if len(inputs) != len(tc.wantNames) {
				t.Fatalf("decodeThingSeed() returned %d things, want %d", len(inputs), len(tc.wantNames))
			}
			for i, want := range tc.wantNames {
				if inputs[i].Name != want {
					t.Errorf("thing %d name = %q, want %q", i, inputs[i].Name, want)
				}
			}
		})
	}
}

func TestDecodeThingSeedUnrecoverable(t *testing.T) {
	if _, err := decodeThingSeed("hello"); err == nil {
		t.Error("decodeThingSeed() expected error for non-JSON input")
	}
}

func TestThingItemToInput(t *testing.T) {
	item := thingItem{
		Type:       "person",
		Name:       "Ada",
		Properties: ontology.Properties{"role": "engineer"},
		Status:     "archived",
	}

	input := item.toInput()
	if input.Type != ontology.ThingTypePerson {
		t.Errorf("Type = %q, want %q", input.Type, ontology.ThingTypePerson)
	}
	if input.Status != ontology.ThingStatusArchived {
		t.Errorf("Status = %q, want %q", input.Status, ontology.ThingStatusArchived)
	}
	if input.Properties["role"] != "engineer" {
		t.Errorf("Properties[role] = %v, want engineer", input.Properties["role"])
	}
}
