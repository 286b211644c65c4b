// Package api is the REST client for the cloudfm backend. The backend owns
// OAuth and the provider SDK calls; this package only speaks its HTTP contract.
package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/cloudfm/cloudfm/internal/config"
	"github.com/cloudfm/cloudfm/internal/constants"
	"github.com/cloudfm/cloudfm/internal/http"
	"github.com/cloudfm/cloudfm/internal/logging"
	"github.com/cloudfm/cloudfm/internal/models"
	"github.com/cloudfm/cloudfm/internal/progress"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// ReporterFunc returns a progress reporter for one transfer. op is "upload"
// or "download".
type ReporterFunc func(op string) progress.Reporter

// Option configures a Client.
type Option func(*Client)

// WithReporter attaches progress reporting to uploads and downloads.
func WithReporter(fn ReporterFunc) Option {
	return func(c *Client) {
		c.reporter = fn
	}
}

// WithHTTPClient replaces both the JSON and the transfer client. Used by tests.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.transferClient = hc
	}
}

// Client represents the cloudfm backend client
type Client struct {
	httpClient     *nethttp.Client // JSON calls, retrying when max_retries > 0
	transferClient *nethttp.Client // upload/download bodies, never retried
	baseURL        string
	limiter        *rate.Limiter // nil when unlimited
	logger         *logging.Logger
	reporter       ReporterFunc
}

// NewClient creates a new API client from the resolved configuration.
func NewClient(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	if logger == nil {
		logger = logging.Nop()
	}

	httpClient, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	transferClient, err := http.CreateTransferClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure transfer client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}
	// Hand the final response back so non-2xx bodies can be decoded
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		httpClient:     retryClient.StandardClient(),
		transferClient: transferClient,
		baseURL:        baseURL,
		logger:         logger,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginURL is the backend route that starts the provider's OAuth flow.
func (c *Client) LoginURL(p models.Provider) string {
	return c.baseURL + "/login/" + url.PathEscape(string(p))
}

// DownloadURL is the backend route that streams a file as an attachment.
func (c *Client) DownloadURL(p models.Provider, fileID string) string {
	return c.baseURL + downloadPath(p, fileID)
}

func downloadPath(p models.Provider, fileID string) string {
	return "/download/" + url.PathEscape(string(p)) + "/" + url.PathEscape(fileID)
}

// newRequest builds a request against the backend tagged with a fresh request ID.
func (c *Client) newRequest(ctx context.Context, method, path string) (*nethttp.Request, string, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(constants.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	return req, requestID, nil
}

// wait blocks on the request pacer, if one is configured.
func (c *Client) wait(ctx context.Context, op string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("rate limiter cancelled: %w", err)}
	}
	return nil
}

// send performs req on hc and classifies the outcome. The caller owns the
// returned body on success; on BackendError the body has already been consumed.
func (c *Client) send(hc *nethttp.Client, req *nethttp.Request, op, requestID string) (*nethttp.Response, error) {
	if err := c.wait(req.Context(), op); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn().
			Str("op", op).
			Str("request_id", requestID).
			Err(err).
			Msgf("%s %s failed", req.Method, req.URL.Path)
		return nil, &NetworkError{Op: op, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msgf("%s %s", req.Method, req.URL.Path)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		be := newBackendError(op, resp.StatusCode, resp.Body)
		c.logger.Warn().
			Str("op", op).
			Str("request_id", requestID).
			Int("status", resp.StatusCode).
			Str("error", be.Message).
			Msg("backend returned an error")
		return nil, be
	}
	return resp, nil
}

// doRequest performs a body-less JSON request on the (retrying) API client.
func (c *Client) doRequest(ctx context.Context, method, path, op string) (*nethttp.Response, error) {
	req, requestID, err := c.newRequest(ctx, method, path)
	if err != nil {
		return nil, err
	}
	return c.send(c.httpClient, req, op, requestID)
}
