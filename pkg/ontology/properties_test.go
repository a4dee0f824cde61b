package ontology

import (
	"fmt"
	"strings"
	"testing"
)

func TestPropertiesValidate(t *testing.T) {
	tests := []struct {
		name    string
		props   Properties
		wantErr string
	}{
		{
			name:  "nil map",
			props: nil,
		},
		{
			name:  "empty map",
			props: Properties{},
		},
		{
			name: "flat scalars",
			props: Properties{
				"name":   "Mug",
				"price":  9.99,
				"active": true,
				"note":   nil,
				"stock":  12,
			},
		},
		{
			name: "nested map and array",
			props: Properties{
				"dimensions": map[string]any{"w": 8.0, "h": 10.0},
				"tags":       []any{"ceramic", "blue"},
				"labels":     []string{"a", "b"},
			},
		},
		{
			name: "nested properties value",
			props: Properties{
				"settings": Properties{"theme": "dark"},
			},
		},
		{
			name:    "unsupported value",
			props:   Properties{"ch": make(chan int)},
			wantErr: "unsupported value type",
		},
		{
			name:    "unsupported value in array",
			props:   Properties{"items": []any{"ok", struct{}{}}},
			wantErr: "unsupported value type",
		},
		{
			name:    "empty key",
			props:   Properties{"": "x"},
			wantErr: "empty key",
		},
		{
			name:    "empty nested key",
			props:   Properties{"outer": map[string]any{"": 1}},
			wantErr: "empty key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.props.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPropertiesValidateDepthBound(t *testing.T) {
	// Build a map nested one level past the depth limit.
	inner := map[string]any{"leaf": "v"}
	for i := 0; i < maxPropertyDepth; i++ {
		inner = map[string]any{"n": inner}
	}
	props := Properties{"root": inner}

	err := props.Validate()
	if err == nil {
		t.Fatal("expected depth error, got nil")
	}
	if !strings.Contains(err.Error(), "depth limit") {
		t.Fatalf("expected depth limit error, got %v", err)
	}

	// One level inside the limit passes.
	shallow := Properties{"a": map[string]any{"b": map[string]any{"c": 1}}}
	if err := shallow.Validate(); err != nil {
		t.Fatalf("expected nil error for shallow nesting, got %v", err)
	}
}

func TestPropertiesValidateKeyCountBound(t *testing.T) {
	props := Properties{}
	for i := 0; i < maxPropertyKeys+1; i++ {
		props[fmt.Sprintf("k%d", i)] = i
	}
	err := props.Validate()
	if err == nil {
		t.Fatal("expected key count error, got nil")
	}
	if !strings.Contains(err.Error(), "too many keys") {
		t.Fatalf("expected too many keys error, got %v", err)
	}
}
