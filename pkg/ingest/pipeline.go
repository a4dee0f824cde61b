package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/trellishq/trellis/backend/internal/util"
	"github.com/trellishq/trellis/backend/pkg/embed"
	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

const embedMaxTries = 3

// Pipeline fetches documents, chunks them, embeds the chunks in
// batches, and writes the rows through the store. Every row lands via
// the public store API, so the usual Events and quotas apply.
type Pipeline struct {
	store     store.OntologyStore
	embedder  embed.Embedder
	fetchers  map[SourceKind]Fetcher
	encoder   string
	maxTokens int
}

type PipelineOption func(*Pipeline)

// WithFetcher registers a fetcher for one source kind, replacing any
// previous registration.
func WithFetcher(kind SourceKind, fetcher Fetcher) PipelineOption {
	return func(p *Pipeline) {
		p.fetchers[kind] = fetcher
	}
}

// WithEncoder overrides the tiktoken encoding used for chunking.
func WithEncoder(encoder string) PipelineOption {
	return func(p *Pipeline) {
		p.encoder = encoder
	}
}

// WithMaxTokens overrides the per-chunk token bound.
func WithMaxTokens(maxTokens int) PipelineOption {
	return func(p *Pipeline) {
		p.maxTokens = maxTokens
	}
}

// NewPipeline builds a pipeline over the given store and embedder.
// Inline, file, and web sources work out of the box; S3 needs an
// explicitly configured fetcher because it carries credentials.
func NewPipeline(st store.OntologyStore, embedder embed.Embedder, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:    st,
		embedder: embedder,
		fetchers: map[SourceKind]Fetcher{
			SourceKindInline: InlineFetcher{},
			SourceKindFile:   NewFileFetcher(),
			SourceKindWeb:    NewWebFetcher(),
		},
		encoder:   DefaultEncoder,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestParams describes one document to ingest into a group.
type IngestParams struct {
	GroupID       string   `json:"groupId"`
	SourceThingID *string  `json:"sourceThingId,omitempty"`
	Source        Source   `json:"source"`
	Labels        []string `json:"labels,omitempty"`
	ActorID       string   `json:"actorId,omitempty"`
}

// IngestResult reports what one pipeline run wrote.
type IngestResult struct {
	DocumentID string   `json:"documentId"`
	ChunkIDs   []string `json:"chunkIds"`
}

// Run executes the full ingest for one document: fetch, extract,
// chunk, embed, store. The document row is written first so chunk rows
// can point back at it.
func (p *Pipeline) Run(ctx context.Context, params IngestParams) (*IngestResult, error) {
	fetcher, ok := p.fetchers[params.Source.Kind]
	if !ok {
		return nil, store.NewValidationError("source.kind", "no fetcher for source kind %q", params.Source.Kind)
	}

	raw, err := fetcher.Fetch(ctx, params.Source)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", params.Source.DisplayName(), err)
	}
	if params.Source.Format == FormatDocx {
		raw, err = extractDocxText(raw)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", params.Source.DisplayName(), err)
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, store.NewValidationError("source", "document %s has no text content", params.Source.DisplayName())
	}

	chunks, err := ChunkText(text, params.Source.Format, p.encoder, p.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", params.Source.DisplayName(), err)
	}
	logger.Debug("[Ingest][Run] Document chunked",
		"group", params.GroupID, "source", params.Source.DisplayName(), "chunks", len(chunks))

	// One batch covers the document title plus every chunk.
	inputs := make([][]byte, 0, len(chunks)+1)
	inputs = append(inputs, []byte(params.Source.DisplayName()))
	for _, chunk := range chunks {
		inputs = append(inputs, []byte(chunk.Text))
	}
	embeddings, err := util.RetryWithContext(ctx, embedMaxTries, func(ctx context.Context) ([][]float32, error) {
		return embed.EmbedTexts(ctx, p.embedder, inputs)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %s: %w", params.Source.DisplayName(), err)
	}
	model := p.embedder.ModelID()

	document, err := p.store.CreateKnowledge(ctx, store.CreateKnowledgeParams{
		GroupID:       params.GroupID,
		SourceThingID: params.SourceThingID,
		Content:       params.Source.DisplayName(),
		Labels:        params.Labels,
		Metadata: ontology.Properties{
			"source_kind": string(params.Source.Kind),
			"location":    params.Source.Location,
			"format":      string(params.Source.Format),
			"chunk_count": len(chunks),
		},
		Type:           ontology.KnowledgeTypeDocument,
		Embedding:      embeddings[0],
		EmbeddingModel: model,
		ActorID:        params.ActorID,
	})
	if err != nil {
		return nil, fmt.Errorf("storing document row: %w", err)
	}

	result := IngestResult{DocumentID: document.ID, ChunkIDs: make([]string, 0, len(chunks))}
	for i, chunk := range chunks {
		row, err := p.store.CreateKnowledge(ctx, store.CreateKnowledgeParams{
			GroupID:       params.GroupID,
			SourceThingID: params.SourceThingID,
			Content:       chunk.Text,
			Labels:        params.Labels,
			Metadata: ontology.Properties{
				"document_id": document.ID,
				"chunk_index": chunk.Index,
				"start":       chunk.Start,
				"end":         chunk.End,
			},
			Type:           ontology.KnowledgeTypeChunk,
			Embedding:      embeddings[i+1],
			EmbeddingModel: model,
			ActorID:        params.ActorID,
		})
		if err != nil {
			return nil, fmt.Errorf("storing chunk %d of %s: %w", chunk.Index, params.Source.DisplayName(), err)
		}
		result.ChunkIDs = append(result.ChunkIDs, row.ID)
	}

	logger.Info("[Ingest][Run] Document ingested",
		"group", params.GroupID, "document", document.ID, "chunks", len(result.ChunkIDs))
	return &result, nil
}
