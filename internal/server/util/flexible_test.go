package util

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type seedThing struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}

	tests := []struct {
		name  string
		input string
		want  seedThing
	}{
		{
			name:  "valid json object",
			input: `{"type":"person","name":"Ada"}`,
			want:  seedThing{Type: "person", Name: "Ada"},
		},
		{
			name:  "unquoted keys and single quotes",
			input: `{type: 'person', name: 'Ada'}`,
			want:  seedThing{Type: "person", Name: "Ada"},
		},
		{
			name:  "trailing comma",
			input: `{"type":"person","name":"Ada",}`,
			want:  seedThing{Type: "person", Name: "Ada"},
		},
		{
			name:  "missing endbracket",
			input: `{"type":"person","name":"Ada`,
			want:  seedThing{Type: "person", Name: "Ada"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{type: 'person', name: 'Ada'}"`,
			want:  seedThing{Type: "person", Name: "Ada"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"type\": \"person\",\n  \"name\": \"Ada\"\n}\n",
			want:  seedThing{Type: "person", Name: "Ada"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got seedThing
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Type != tc.want.Type || got.Name != tc.want.Name {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type seedThing struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}

	input := `[{type:'person',name:'A'},{type:'product',name:'B',}]`
	var got []seedThing
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two seed things A,B", got)
	}
	if got[0].Type != "person" || got[1].Type != "product" {
		t.Fatalf("UnmarshalFlexible() types got = %q,%q", got[0].Type, got[1].Type)
	}
}

func TestUnmarshalFlexible_StringifiedWithNewlines(t *testing.T) {
	type seedThing struct {
		Type string   `json:"type"`
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}

	input := `"{\n  \"type\": \"course\",\n  \"name\": \"Intro to Graphs\",\n  \"tags\": [\"beginner\", \"graphs\"]\n}\n"`
	var got seedThing
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if got.Type != "course" || got.Name != "Intro to Graphs" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "beginner" || got.Tags[1] != "graphs" {
		t.Fatalf("UnmarshalFlexible() tags got = %v", got.Tags)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type seedThing struct {
		Name string `json:"name"`
	}

	var got seedThing
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}
