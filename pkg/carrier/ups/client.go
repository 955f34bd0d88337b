// Package ups provides integration with the UPS Rating API.
package ups

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "ups"

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	BaseURL       string
	AuthURL       string
	AccountNumber string // enables negotiated rates when set
	Timeout       time.Duration

	Retry   carrier.RetryPolicy   // zero value = DefaultRetryPolicy
	Breaker carrier.BreakerConfig // zero value = breaker defaults

	UseMock bool // when true, uses a mock API client and a static token

	// Observability hooks, wired by the composition root.
	OnRetry             func(attempt int, delay time.Duration, err error)
	OnBreakerTransition func(from, to carrier.BreakerState)
	OnTokenRefresh      func(err error)
}

// Client is the UPS carrier client. It implements the carrier.Carrier
// interface and composes, innermost to outermost: the 401-aware transport
// call, the circuit breaker, and the retry policy.
type Client struct {
	config  Config
	auth    TokenSource
	api     APIClient
	breaker *carrier.Breaker
	retry   carrier.RetryPolicy
	logger  *otelzap.Logger
	tracer  trace.Tracer
}

// New creates a new UPS client. If cfg.UseMock is true, it uses a mock API
// client with a static token so no network credentials are needed.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var api APIClient
	var auth TokenSource

	if cfg.UseMock {
		api = NewMockAPIClient()
		auth = staticTokenSource("Bearer mock-token")
	} else {
		api = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
		auth = NewAuthProvider(cfg, logger)
	}

	return newClient(cfg, api, auth, logger, tracer)
}

// NewWithAPIClient creates a new UPS client with a custom API client and
// token source. This is useful for injecting mocks in tests.
func NewWithAPIClient(cfg Config, api APIClient, auth TokenSource, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return newClient(cfg, api, auth, logger, tracer)
}

func newClient(cfg Config, api APIClient, auth TokenSource, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = carrier.DefaultRetryPolicy()
	}

	breakerCfg := cfg.Breaker
	userTransition := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to carrier.BreakerState) {
		logger.Warn("Circuit breaker transition",
			zap.String("carrier", carrierName),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		if userTransition != nil {
			userTransition(from, to)
		}
		if cfg.OnBreakerTransition != nil {
			cfg.OnBreakerTransition(from, to)
		}
	}

	return &Client{
		config:  cfg,
		auth:    auth,
		api:     api,
		breaker: carrier.NewBreaker(breakerCfg),
		retry:   retry,
		logger:  logger,
		tracer:  tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// SupportsServiceLevel reports whether the level maps to a vendor service.
func (c *Client) SupportsServiceLevel(level carrier.ServiceLevel) bool {
	if level == "" {
		return true
	}
	_, err := serviceLevelToCode(level)
	return err == nil
}

// GetRates returns normalized UPS rate quotes. Validation and request
// mapping happen before any network call; the transport call runs inside
// the breaker, which runs inside the retry executor, so a circuit-open
// fast-fail is itself subject to the retry decision. Every error escaping
// this method is a typed *carrier.Error tagged with the carrier name.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "ups.GetRates")
		defer span.End()
	}

	if err := carrier.Validate(req); err != nil {
		return nil, carrier.Wrap(carrierName, err)
	}

	requestID := uuid.New().String()
	c.logger.Info("Getting UPS rates",
		zap.String("request_id", requestID),
		zap.String("origin_city", req.Origin.City),
		zap.String("destination_city", req.Destination.City),
		zap.Int("package_count", len(req.Packages)),
		zap.String("service_level", string(req.ServiceLevel)),
	)

	wireReq, err := toWireRequest(req, c.config.AccountNumber, requestID)
	if err != nil {
		return nil, carrier.Wrap(carrierName, err)
	}

	var wireResp *RatingResponse
	err = carrier.Retry(ctx, c.retry, c.observeRetry(requestID), func(attempt int) error {
		return c.breaker.Do(func() error {
			resp, sendErr := c.send(ctx, requestID, wireReq)
			if sendErr != nil {
				return sendErr
			}
			wireResp = resp
			return nil
		})
	})
	if err != nil {
		c.logger.Error("UPS rate call failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, carrier.Wrap(carrierName, err)
	}

	result, err := fromWireResponse(wireResp, requestID, time.Now())
	if err != nil {
		return nil, carrier.Wrap(carrierName, err)
	}

	if c.tracer != nil {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("ratebridge.request_id", requestID),
			attribute.Int("ratebridge.quote_count", len(result.Quotes)),
		)
	}
	return result, nil
}

// send performs one transport attempt with the vendor's documented 401
// recovery: on 401/403 it invalidates the cached token and retries exactly
// once with a freshly fetched header. A second rejection means the vendor
// will not accept tokens we mint, which is a distinct, non-retryable
// failure from bad credentials at the token endpoint. This recovery is
// protocol-specific and does not consume the outer retry budget.
func (c *Client) send(ctx context.Context, requestID string, wireReq *RatingRequest) (*RatingResponse, error) {
	header, err := c.auth.AuthorizationHeader(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.GetRates(ctx, header, requestID, wireReq)
	if err == nil || !isAuthStatus(err) {
		return resp, err
	}

	c.logger.Warn("Vendor rejected token, refreshing once",
		zap.String("request_id", requestID),
	)
	c.auth.Invalidate()

	header, err = c.auth.AuthorizationHeader(ctx)
	if err != nil {
		return nil, err
	}

	resp, err = c.api.GetRates(ctx, header, requestID, wireReq)
	if err != nil && isAuthStatus(err) {
		return nil, carrier.NewError(carrierName, carrier.CodeAuthTokenInvalid,
			"vendor rejected a freshly issued token").
			WithStatusCode(statusCode(err)).
			WithCause(err)
	}
	return resp, err
}

func (c *Client) observeRetry(requestID string) carrier.RetryObserver {
	return func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Retrying UPS rate call",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if c.config.OnRetry != nil {
			c.config.OnRetry(attempt, delay, err)
		}
	}
}

// isAuthStatus reports whether err is a typed error carrying a 401/403
// transport status.
func isAuthStatus(err error) bool {
	e, ok := carrier.AsError(err)
	return ok && (e.StatusCode == 401 || e.StatusCode == 403)
}

func statusCode(err error) int {
	if e, ok := carrier.AsError(err); ok {
		return e.StatusCode
	}
	return 0
}

// staticTokenSource is a fixed header for mock mode.
type staticTokenSource string

func (s staticTokenSource) AuthorizationHeader(context.Context) (string, error) {
	return string(s), nil
}

func (s staticTokenSource) Invalidate() {}

var _ carrier.Carrier = (*Client)(nil)
