package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/trellishq/trellis/backend/pkg/embed"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// Client implements embed.Embedder using an Ollama server for
// locally-hosted embedding models.
type Client struct {
	model      string
	timeoutMin float64

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     embed.Metrics

	baseURL    *url.URL
	httpClient *http.Client

	api *api.Client
}

// NewClientParams contains configuration options for creating a Client.
type NewClientParams struct {
	Model   string
	BaseURL string
	APIKey  string

	MaxConcurrentRequests int64
	TimeoutMinutes        float64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a new Ollama-backed embedder. It connects to the
// Ollama server at the given BaseURL (or the default if empty).
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.APIKey,
			},
			rt: http.DefaultTransport,
		},
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 2
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

		baseURL:    u,
		httpClient: httpClient,

		api: api.NewClient(u, httpClient),
	}, nil
}

// ModelID returns the embedding model identifier.
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
