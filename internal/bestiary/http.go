package bestiary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public D&D 5e SRD API.
const DefaultBaseURL = "https://www.dnd5eapi.co"

const monstersPath = "/api/monsters/"

// HTTPSource queries a dnd5eapi-compatible HTTP API.
type HTTPSource struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
	logger  *zap.Logger
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithDial routes connections through dial instead of the network.
func WithDial(dial fasthttp.DialFunc) HTTPOption {
	return func(s *HTTPSource) { s.client.Dial = dial }
}

// NewHTTPSource creates an HTTPSource rooted at baseURL. Each request is
// bounded by timeout or the context deadline, whichever is sooner.
//
// Precondition: baseURL must be an absolute URL; logger must be non-nil.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                "initiative-tracker",
			MaxConnsPerHost:     8,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type searchResponse struct {
	Count   int       `json:"count"`
	Results []Summary `json:"results"`
}

// Search lists monsters whose name contains name.
func (s *HTTPSource) Search(ctx context.Context, name string) ([]Summary, error) {
	resp, err := doRequest[searchResponse](ctx, s, s.baseURL+monstersPath+"?name="+url.QueryEscape(name))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monsters: %w", err)
	}
	s.logger.Debug("bestiary search", zap.String("query", name), zap.Int("results", len(resp.Results)))
	return resp.Results, nil
}

// Fetch loads a stat block by index ("goblin") or API path ("/api/monsters/goblin").
func (s *HTTPSource) Fetch(ctx context.Context, id string) (Detail, error) {
	path := id
	if !strings.HasPrefix(id, "/") {
		path = monstersPath + url.PathEscape(id)
	}
	d, err := doRequest[Detail](ctx, s, s.baseURL+path)
	if err != nil {
		return Detail{}, fmt.Errorf("failed to fetch monster details: %w", err)
	}
	s.logger.Debug("bestiary fetch", zap.String("index", d.Index), zap.String("name", d.Name))
	return *d, nil
}

func doRequest[T any](ctx context.Context, s *HTTPSource, uri string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
