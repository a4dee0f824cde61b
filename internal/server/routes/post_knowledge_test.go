package routes

import (
	"testing"

	"github.com/trellishq/trellis/backend/pkg/ingest"
)

func TestFormatForFile(t *testing.T) {
	tests := []struct {
		name string
		want ingest.Format
	}{
		{name: "report.docx", want: ingest.FormatDocx},
		{name: "Report.DOCX", want: ingest.FormatDocx},
		{name: "contacts.csv", want: ingest.FormatCSV},
		{name: "notes.txt", want: ingest.FormatText},
		{name: "readme.md", want: ingest.FormatText},
		{name: "noextension", want: ingest.FormatText},
		{name: "exports/2026/things.csv", want: ingest.FormatCSV},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatForFile(tc.name); got != tc.want {
				t.Errorf("formatForFile(%q) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}
