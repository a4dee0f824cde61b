package openai

import (
	"sync"

	"github.com/trellishq/trellis/backend/pkg/embed"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// Client implements embed.Embedder against an OpenAI-compatible
// embeddings endpoint.
//
// A Client should be created using NewClient.
type Client struct {
	model      string
	timeoutMin float64

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     embed.Metrics

	api *openai.Client
}

// NewClientParams defines the configuration for creating a Client.
//
// Model specifies the embedding model identifier. BaseURL and APIKey
// configure the endpoint; BaseURL may be empty for the official API.
// MaxConcurrentRequests bounds in-flight requests across goroutines.
type NewClientParams struct {
	Model   string
	BaseURL string
	APIKey  string

	MaxConcurrentRequests int64
	TimeoutMinutes        float64
}

// NewClient creates a Client configured with the provided parameters.
func NewClient(params NewClientParams) *Client {
	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	api := openai.NewClient(options...)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	timeoutMin := params.TimeoutMinutes
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &Client{
		model:      params.Model,
		timeoutMin: timeoutMin,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics:     embed.Metrics{},

		api: &api,
	}
}

// ModelID returns the embedding model identifier. It is stored alongside
// each embedding so stale vectors can be found after a model change.
func (c *Client) ModelID() string {
	return c.model
}

// ResetMetrics clears all accumulated usage metrics to zero.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = embed.Metrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated usage metrics since the last reset.
func (c *Client) GetMetrics() embed.Metrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *Client) modifyMetrics(m embed.Metrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
	c.metrics.Requests += m.Requests
}
