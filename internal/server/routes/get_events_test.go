package routes

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "empty value",
			input:   "",
			wantNil: true,
		},
		{
			name:  "utc timestamp",
			input: "2026-08-24T12:00:00Z",
			want:  "2026-08-24T12:00:00Z",
		},
		{
			name:  "timestamp with offset",
			input: "2026-08-24T14:30:00+02:00",
			want:  "2026-08-24T14:30:00+02:00",
		},
		{
			name:    "date only",
			input:   "2026-08-24",
			wantErr: true,
		},
		{
			name:    "not a timestamp",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTimestamp(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseTimestamp(%q) expected error, got %v", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimestamp(%q) error = %v", tc.input, err)
			}
			if tc.wantNil {
				if got != nil {
					t.Fatalf("parseTimestamp(%q) = %v, want nil", tc.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseTimestamp(%q) = nil, want %s", tc.input, tc.want)
			}
			want, _ := time.Parse(time.RFC3339, tc.want)
			if !got.Equal(want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tc.input, got, want)
			}
		})
	}
}
