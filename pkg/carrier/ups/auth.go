package ups

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// refreshBuffer is subtracted from the stored token expiry so a token never
// expires mid-flight.
const refreshBuffer = 60 * time.Second

// defaultTokenTTL is assumed when the token endpoint omits expires_in.
const defaultTokenTTL = 3600 * time.Second

// TokenSource supplies Authorization headers for rate calls. Invalidate is
// called after the vendor rejects a token so the next call fetches a fresh one.
type TokenSource interface {
	AuthorizationHeader(ctx context.Context) (string, error)
	Invalidate()
}

// AuthProvider owns the OAuth2 client-credentials token lifecycle: fetch,
// cache, expiry-buffered refresh, and single-flight deduplication of
// concurrent refreshes. One instance is shared by all in-flight calls to
// the carrier.
type AuthProvider struct {
	clientID     string
	clientSecret string
	authURL      string
	httpClient   *http.Client
	logger       *otelzap.Logger
	onRefresh    func(err error)
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewAuthProvider creates an auth provider for the configured token endpoint.
func NewAuthProvider(cfg Config, logger *otelzap.Logger) *AuthProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AuthProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authURL:      cfg.AuthURL,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		onRefresh:    cfg.OnTokenRefresh,
		now:          time.Now,
	}
}

// AuthorizationHeader returns a bearer header with a usable token,
// refreshing it when the cached one has expired by our accounting.
// Concurrent callers needing a refresh share exactly one network round trip.
func (p *AuthProvider) AuthorizationHeader(ctx context.Context) (string, error) {
	if header, ok := p.cachedHeader(); ok {
		return header, nil
	}

	// The singleflight key is constant: there is one token per provider.
	// The in-flight call is forgotten on settlement, success or failure,
	// so a failed refresh never wedges future attempts.
	v, err, _ := p.group.Do("token", func() (any, error) {
		if header, ok := p.cachedHeader(); ok {
			return header, nil
		}
		return p.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate clears the cached token unconditionally. Used after the vendor
// rejects a token that our accounting still considered valid.
func (p *AuthProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiresAt = time.Time{}
}

func (p *AuthProvider) cachedHeader() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && p.now().Before(p.expiresAt) {
		return "Bearer " + p.token, true
	}
	return "", false
}

func (p *AuthProvider) refresh(ctx context.Context) (string, error) {
	token, ttl, err := p.fetchToken(ctx)
	if p.onRefresh != nil {
		p.onRefresh(err)
	}
	if err != nil {
		p.logger.Warn("Token refresh failed", zap.Error(err))
		return "", err
	}

	p.mu.Lock()
	p.token = token
	p.expiresAt = p.now().Add(ttl - refreshBuffer)
	p.mu.Unlock()

	p.logger.Debug("Token refreshed", zap.Duration("ttl", ttl))
	return "Bearer " + token, nil
}

// tokenResponse is the token endpoint payload. expires_in arrives as a
// quoted number from some gateways, hence json.Number.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
}

func (p *AuthProvider) fetchToken(ctx context.Context) (string, time.Duration, error) {
	body := strings.NewReader(url.Values{"grant_type": {"client_credentials"}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL, body)
	if err != nil {
		return "", 0, carrier.NewError(carrierName, carrier.CodeAuthFailed, "failed to build token request").
			WithCause(err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, classifyTransportError(err, "token endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, carrier.NewError(carrierName, carrier.CodeAuthFailed, "token endpoint rejected credentials").
			WithStatusCode(resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", 0, carrier.NewError(carrierName, carrier.CodeAuthFailed, "failed to decode token response").
			WithCause(err)
	}
	if tok.AccessToken == "" {
		return "", 0, carrier.NewError(carrierName, carrier.CodeAuthFailed, "token response missing access_token")
	}

	ttl := defaultTokenTTL
	if seconds, err := tok.ExpiresIn.Int64(); err == nil && seconds > 0 {
		ttl = time.Duration(seconds) * time.Second
	}
	return tok.AccessToken, ttl, nil
}

// classifyTransportError maps a transport-level failure to the taxonomy:
// deadline hits become TIMEOUT, everything else NETWORK_ERROR, both retryable.
func classifyTransportError(err error, message string) *carrier.Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return carrier.NewError(carrierName, carrier.CodeTimeout, message).
			WithRetryable(true).
			WithCause(err)
	}
	return carrier.NewError(carrierName, carrier.CodeNetwork, message).
		WithRetryable(true).
		WithCause(err)
}

var _ TokenSource = (*AuthProvider)(nil)
