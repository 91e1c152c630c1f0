// Package ollama is the client for a local Ollama inference server.
//
// Every call makes a single attempt. Failures are reported as values: a false
// bool for probes, a typed error from Complete and GenerateStream, or a
// user-facing message from Generate.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL         = "http://localhost:11434"
	DefaultProbeTimeout    = 5 * time.Second
	DefaultGenerateTimeout = 10 * time.Minute

	tagsPath     = "/api/tags"
	generatePath = "/api/generate"
)

// ModelResolver maps a category to a configured model identifier.
type ModelResolver interface {
	ModelFor(Category) string
}

type Client struct {
	base            *url.URL
	http            *http.Client
	resolver        ModelResolver
	probeTimeout    time.Duration
	generateTimeout time.Duration
	log             *zap.Logger
}

type Option func(*Client)

// WithHTTPClient sets the client used for every call. Its Timeout bounds generation
// unless WithGenerateTimeout is also given; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithGenerateTimeout(d time.Duration) Option {
	return func(c *Client) { c.generateTimeout = d }
}

func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) { c.probeTimeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, resolver ModelResolver, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if resolver == nil {
		return nil, fmt.Errorf("ollama client requires a model resolver")
	}

	c := &Client{
		base:         base,
		resolver:     resolver,
		probeTimeout: DefaultProbeTimeout,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.http == nil:
		timeout := DefaultGenerateTimeout
		if c.generateTimeout > 0 {
			timeout = c.generateTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	case c.generateTimeout > 0:
		hc := *c.http
		hc.Timeout = c.generateTimeout
		c.http = &hc
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// ModelFor exposes the resolver so callers can report which model served a request.
func (c *Client) ModelFor(cat Category) string {
	return c.resolver.ModelFor(cat)
}

// IsServiceAvailable probes /api/tags with the short probe timeout.
func (c *Client) IsServiceAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(tagsPath), nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("ollama probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(tagsPath), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}
	return tags.Models, nil
}

// CheckModelExists reports whether modelID is installed. "foo" matches "foo:latest".
func (c *Client) CheckModelExists(ctx context.Context, modelID string) bool {
	if strings.TrimSpace(modelID) == "" {
		return false
	}

	installed, err := c.ListModels(ctx)
	if err != nil {
		c.log.Debug("model lookup failed", zap.String("model", modelID), zap.Error(err))
		return false
	}

	for _, m := range installed {
		if matchesModel(m.Name, modelID) {
			return true
		}
	}
	return false
}

func matchesModel(installed, wanted string) bool {
	if strings.EqualFold(installed, wanted) {
		return true
	}
	prefix := wanted + ":"
	return len(installed) > len(prefix) && strings.EqualFold(installed[:len(prefix)], prefix)
}
