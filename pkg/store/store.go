package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultEndpoint = "http://localhost:8080"
	DefaultTimeout  = 10 * time.Second

	incidentPath = "/incident"
)

var (
	ErrFetchFailed  = errors.New("failed to fetch incidents")
	ErrSubmitFailed = errors.New("failed to submit incident")
	ErrDeleteFailed = errors.New("failed to delete incident")

	// ErrTransport is joined with the failure kind when no response was received
	ErrTransport = errors.New("transport failure")
)

// StatusError is joined with the failure kind when the remote answered with a non-2xx status
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d %s", e.Code, http.StatusText(e.Code))
}

// IncidentStore is the interface the controller uses to reach the remote incident
// collection. It makes it easier to mock the remote in tests.
type IncidentStore interface {
	ListAll(ctx context.Context) ([]incident.Incident, error)
	Create(ctx context.Context, i incident.Incident) error
	Update(ctx context.Context, i incident.Incident) error
	Delete(ctx context.Context, id int64) error
}

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the settings used to build a Client
type Config struct {
	Endpoint string
	Timeout  time.Duration

	// HTTPClient overrides the default instrumented client when set
	HTTPClient HTTPDoer

	// Registerer receives the client metrics; nil disables registration
	Registerer prometheus.Registerer
}

// Client implements IncidentStore against the remote HTTP resource
type Client struct {
	endpoint string
	http     HTTPDoer
	metrics  *Metrics
}

func NewClient(c Config) (*Client, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("store.NewClient(): invalid endpoint `%v`: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("store.NewClient(): endpoint `%v` must include a scheme and host", endpoint)
	}

	doer := c.HTTPClient
	if doer == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		doer = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     doer,
		metrics:  NewMetrics(c.Registerer),
	}, nil
}

// Endpoint returns the base URL requests are sent to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ListAll fetches the full incident collection in the order the remote returns it
func (c *Client) ListAll(ctx context.Context) ([]incident.Incident, error) {
	var incidents []incident.Incident

	resp, err := c.do(ctx, opList, http.MethodGet, incidentPath, nil)
	if err != nil {
		return nil, fmt.Errorf("store.ListAll(): %w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(&incidents); err != nil {
		return nil, fmt.Errorf("store.ListAll(): %w: failed to decode response: %w", ErrFetchFailed, err)
	}

	// Every incident held by the client must carry an ID
	kept := make([]incident.Incident, 0, len(incidents))
	for _, i := range incidents {
		if !i.HasID() {
			log.Warn("store.ListAll(): dropping incident without an ID", "name", i.Name)
			continue
		}
		kept = append(kept, i)
	}

	log.Debug("store.ListAll()", "incidents", len(kept))
	return kept, nil
}

// Create submits a draft incident; only the response status is used
func (c *Client) Create(ctx context.Context, i incident.Incident) error {
	return c.submit(ctx, opCreate, http.MethodPost, i)
}

// Update submits an existing incident; only the response status is used
func (c *Client) Update(ctx context.Context, i incident.Incident) error {
	return c.submit(ctx, opUpdate, http.MethodPut, i)
}

func (c *Client) submit(ctx context.Context, op, method string, i incident.Incident) error {
	body, err := json.Marshal(i)
	if err != nil {
		return fmt.Errorf("store.%s(): %w: %w", op, ErrSubmitFailed, err)
	}

	resp, err := c.do(ctx, op, method, incidentPath, body)
	if err != nil {
		return fmt.Errorf("store.%s(): %w: %w", op, ErrSubmitFailed, err)
	}
	drain(resp)

	return nil
}

// Delete requests removal of the incident with the given ID
func (c *Client) Delete(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, opDelete, http.MethodDelete, incidentPath+"/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return fmt.Errorf("store.Delete(): incident `%v`: %w: %w", id, ErrDeleteFailed, err)
	}
	drain(resp)

	return nil
}

// do sends the request and returns the response only for 2xx statuses. Other
// outcomes return an error wrapping ErrTransport or a *StatusError.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		c.metrics.observe(op, outcomeTransport, 0)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(op, outcomeTransport, elapsed)
		log.Debug("store request failed", "op", op, "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		c.metrics.observe(op, outcomeStatus, elapsed)
		log.Debug("store request rejected", "op", op, "method", method, "path", path, "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	c.metrics.observe(op, outcomeOK, elapsed)
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
