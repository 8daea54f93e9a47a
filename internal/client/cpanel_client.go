package client

import (
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/metrics"
	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/models"
)

const apiPrefix = "/json-api/"

// WHM JSON API endpoints
const (
	EndpointCreateAccount    = "createacct"
	EndpointSuspendAccount   = "suspendacct"
	EndpointUnsuspendAccount = "unsuspendacct"
	EndpointRemoveAccount    = "removeacct"
	EndpointListPackages     = "listpkgs"
)

// ErrRequestFailed is wrapped by every non-2xx WHM reply.
var ErrRequestFailed = errors.New("cpanel API request failed")

// APIError reports a non-2xx WHM reply. The cause is not classified further.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cpanel %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

// CreateAccountParams are the createacct parameters
type CreateAccountParams struct {
	Username     string
	Password     string
	ContactEmail string
	Domain       string
	Plan         string
}

// whmMetadata is the metadata block WHM API 1 adds to every reply
type whmMetadata struct {
	Metadata *struct {
		Result int    `json:"result"`
		Reason string `json:"reason"`
	} `json:"metadata"`
}

type listPackagesResponse struct {
	// API 0 shape
	Package []models.Package `json:"package"`
	// API 1 shape
	Data struct {
		Pkg []models.Package `json:"pkg"`
	} `json:"data"`
}

type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	requests, err := metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpanel_whm_requests_total",
		Help: "Total number of WHM API requests by endpoint and HTTP status.",
	}, []string{"endpoint", "status"}))
	if err != nil {
		return nil, fmt.Errorf("register request counter: %w", err)
	}

	duration, err := metrics.Register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cpanel_whm_request_duration_seconds",
		Help:    "WHM API request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"}))
	if err != nil {
		return nil, fmt.Errorf("register duration histogram: %w", err)
	}

	return &clientMetrics{requests: requests, duration: duration}, nil
}

func (m *clientMetrics) observe(endpoint, status string, elapsed time.Duration) {
	m.requests.WithLabelValues(endpoint, status).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// CPanelClient calls the WHM JSON API of a single CPanel server
type CPanelClient struct {
	host       string
	username   string
	apiKey     string
	httpClient *http.Client
	metrics    *clientMetrics
	logger     zerolog.Logger
}

// NewCPanelClient creates a client for the configured WHM server. A zero
// Timeout leaves the http.Client default in place.
func NewCPanelClient(cfg config.CPanelConfig, reg prometheus.Registerer, logger zerolog.Logger) (*CPanelClient, error) {
	m, err := newClientMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &CPanelClient{
		host:     strings.TrimRight(cfg.Host, "/"),
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithFilter(traceable)),
		},
		metrics: m,
		logger:  logger.With().Str("component", "cpanel_client").Logger(),
	}, nil
}

// traceable keeps createacct out of client spans, whose URL attribute would
// include the account password.
func traceable(r *http.Request) bool {
	return !strings.HasSuffix(r.URL.Path, apiPrefix+EndpointCreateAccount)
}

// request performs one GET against /json-api/<endpoint>. A non-2xx status
// returns an *APIError. The body must be JSON; it is decoded into result when
// result is non-nil.
func (c *CPanelClient) request(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := c.host + apiPrefix + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	httpReq.Header.Set("Authorization", "whm "+c.username+":"+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(endpoint, "error", time.Since(start))
		// the query carries account passwords
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = c.host + apiPrefix + endpoint
		}
		return fmt.Errorf("send %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.observe(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("WHM request failed")
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var meta whmMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if meta.Metadata != nil && meta.Metadata.Result == 0 {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("reason", meta.Metadata.Reason).
			Msg("WHM reported an unsuccessful result")
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, err)
		}
	}

	c.logger.Debug().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("WHM request done")
	return nil
}

// CreateAccount creates a hosting account on the WHM server
func (c *CPanelClient) CreateAccount(ctx context.Context, p CreateAccountParams) error {
	params := url.Values{}
	params.Set("api.version", "1")
	params.Set("username", p.Username)
	params.Set("password", p.Password)
	params.Set("contactemail", p.ContactEmail)
	params.Set("domain", p.Domain)
	params.Set("plan", p.Plan)

	c.logger.Info().Str("username", p.Username).Str("domain", p.Domain).Str("plan", p.Plan).Msg("creating account")
	return c.request(ctx, EndpointCreateAccount, params, nil)
}

// SuspendAccount suspends the account owned by user
func (c *CPanelClient) SuspendAccount(ctx context.Context, user string) error {
	return c.accountAction(ctx, EndpointSuspendAccount, user)
}

// UnsuspendAccount lifts a suspension
func (c *CPanelClient) UnsuspendAccount(ctx context.Context, user string) error {
	return c.accountAction(ctx, EndpointUnsuspendAccount, user)
}

// RemoveAccount terminates the account and deletes its data on the server
func (c *CPanelClient) RemoveAccount(ctx context.Context, user string) error {
	return c.accountAction(ctx, EndpointRemoveAccount, user)
}

func (c *CPanelClient) accountAction(ctx context.Context, endpoint, user string) error {
	params := url.Values{}
	params.Set("api.version", "1")
	params.Set("user", user)

	c.logger.Info().Str("endpoint", endpoint).Str("username", user).Msg("account action")
	return c.request(ctx, endpoint, params, nil)
}

// ListPackages returns the hosting plans defined on the server, in server order
func (c *CPanelClient) ListPackages(ctx context.Context) ([]models.Package, error) {
	var result listPackagesResponse
	if err := c.request(ctx, EndpointListPackages, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Package) > 0 {
		return result.Package, nil
	}
	return result.Data.Pkg, nil
}
