// Package ingest turns external documents into embedded knowledge
// chunks. A Fetcher retrieves raw bytes from a source, the chunker
// splits extracted text along sentence and token bounds, and the
// Pipeline writes the resulting rows through the store.
package ingest

import "context"

// SourceKind selects the Fetcher responsible for a Source.
type SourceKind string

const (
	SourceKindInline SourceKind = "inline"
	SourceKindFile   SourceKind = "file"
	SourceKindS3     SourceKind = "s3"
	SourceKindWeb    SourceKind = "web"
)

// Format tells the pipeline how to extract text from fetched bytes.
type Format string

const (
	FormatText Format = "text"
	FormatDocx Format = "docx"
	FormatCSV  Format = "csv"
)

// Source identifies one document to ingest. Location is an object key,
// URL, or path depending on Kind; inline sources carry their content in
// Inline instead.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Location string     `json:"location,omitempty"`
	Format   Format     `json:"format,omitempty"`
	Inline   string     `json:"inline,omitempty"`
	Name     string     `json:"name,omitempty"`
}

// DisplayName returns the human-readable name of the source, falling
// back to its location.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Location != "" {
		return s.Location
	}
	return string(s.Kind)
}

// Fetcher retrieves the raw bytes of a Source. Implementations may
// cache; a Source is assumed immutable for the lifetime of the process.
type Fetcher interface {
	Fetch(ctx context.Context, source Source) ([]byte, error)
}

func cacheKey(source Source) string {
	return string(source.Kind) + ":" + source.Location
}

// InlineFetcher serves sources whose content travels with the request.
type InlineFetcher struct{}

func (InlineFetcher) Fetch(ctx context.Context, source Source) ([]byte, error) {
	return []byte(source.Inline), nil
}
