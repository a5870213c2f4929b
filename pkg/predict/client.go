// Package predict is a client for the downstream mobility prediction
// service: compensation package estimation and policy analysis over HTTP.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8900"
	defaultTimeout = 60 * time.Second
)

// Client calls the prediction service.
type Client interface {
	PredictCompensation(ctx context.Context, params CompensationParams) (*Result, error)
	AnalyzePolicy(ctx context.Context, params PolicyParams) (*Result, error)
	Health(ctx context.Context) error
}

// CompensationParams is the request body for POST /api/v1/compensation/predict.
type CompensationParams struct {
	OriginLocation      string  `json:"origin_location"`
	DestinationLocation string  `json:"destination_location"`
	CurrentSalary       float64 `json:"current_salary"`
	Currency            string  `json:"currency"`
	DurationMonths      int     `json:"duration_months"`
	JobLevel            string  `json:"job_level"`
	FamilySize          int     `json:"family_size"`
	HousingPreference   string  `json:"housing_preference"`
}

// PolicyParams is the request body for POST /api/v1/policy/analyze.
type PolicyParams struct {
	OriginCountry      string `json:"origin_country"`
	DestinationCountry string `json:"destination_country"`
	AssignmentType     string `json:"assignment_type"`
	Duration           string `json:"duration"`
	JobTitle           string `json:"job_title"`
}

// Result is the service's response envelope. Status discriminates: "success"
// carries Data, "error" carries Message.
type Result struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Summary string            `json:"summary,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// OK reports whether the service answered with a success status.
func (r *Result) OK() bool {
	return r != nil && r.Status == "success"
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a prediction service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) PredictCompensation(ctx context.Context, params CompensationParams) (*Result, error) {
	return c.post(ctx, "/api/v1/compensation/predict", params)
}

func (c *httpClient) AnalyzePolicy(ctx context.Context, params PolicyParams) (*Result, error) {
	return c.post(ctx, "/api/v1/policy/analyze", params)
}

func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return eris.Wrap(err, "predict: create health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "predict: health check")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("predict: health status %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "predict: rate limit wait")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "predict: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "predict: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "predict: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "predict: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("predict: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "predict: unmarshal response")
	}
	if result.Status == "error" {
		return nil, eris.Errorf("predict: service error: %s", result.Message)
	}

	return &result, nil
}
