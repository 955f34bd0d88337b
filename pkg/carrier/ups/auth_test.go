package ups_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/ratebridge/pkg/carrier"
	"github.com/tournevent/ratebridge/pkg/carrier/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

// tokenServer is a fake OAuth token endpoint.
type tokenServer struct {
	*httptest.Server
	calls    atomic.Int64
	respond  func(w http.ResponseWriter, r *http.Request)
	lastAuth string
	lastBody string
	mu       sync.Mutex
}

func newTokenServer(respond func(w http.ResponseWriter, r *http.Request)) *tokenServer {
	ts := &tokenServer{respond: respond}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		ts.mu.Lock()
		ts.lastAuth = r.Header.Get("Authorization")
		ts.lastBody = string(body)
		ts.mu.Unlock()
		ts.respond(w, r)
	}))
	return ts
}

func respondToken(token string, expiresIn int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","expires_in":%d}`, token, expiresIn)
	}
}

func newAuthProvider(t *testing.T, ts *tokenServer) *ups.AuthProvider {
	t.Helper()
	return ups.NewAuthProvider(ups.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      ts.URL,
		Timeout:      5 * time.Second,
	}, testLogger())
}

func TestAuthProvider_FetchesAndCachesToken(t *testing.T) {
	ts := newTokenServer(respondToken("tok-1", 3600))
	defer ts.Close()

	p := newAuthProvider(t, ts)

	header, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", header)

	// Second call is served from the cache.
	header, err = p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", header)
	assert.Equal(t, int64(1), ts.calls.Load())
}

func TestAuthProvider_SendsClientCredentials(t *testing.T) {
	ts := newTokenServer(respondToken("tok-1", 3600))
	defer ts.Close()

	p := newAuthProvider(t, ts)
	_, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)

	ts.mu.Lock()
	defer ts.mu.Unlock()
	user, pass, ok := parseBasicAuth(ts.lastAuth)
	require.True(t, ok, "expected Basic auth, got %q", ts.lastAuth)
	assert.Equal(t, "client-id", user)
	assert.Equal(t, "client-secret", pass)
	assert.Equal(t, "grant_type=client_credentials", ts.lastBody)
}

func parseBasicAuth(header string) (string, string, bool) {
	req := &http.Request{Header: http.Header{"Authorization": {header}}}
	return req.BasicAuth()
}

func TestAuthProvider_RefetchesExpiredToken(t *testing.T) {
	// expires_in 60s minus the refresh buffer leaves a zero-lifetime token,
	// so the next call must refetch.
	ts := newTokenServer(respondToken("tok", 60))
	defer ts.Close()

	p := newAuthProvider(t, ts)

	_, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	_, err = p.AuthorizationHeader(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), ts.calls.Load())
}

func TestAuthProvider_ConcurrentCallersShareOneRefresh(t *testing.T) {
	ts := newTokenServer(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond) // widen the race window
		respondToken("tok-shared", 3600)(w, r)
	})
	defer ts.Close()

	p := newAuthProvider(t, ts)

	const callers = 10
	headers := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			headers[i], errs[i] = p.AuthorizationHeader(context.Background())
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "Bearer tok-shared", headers[i])
	}
	assert.Equal(t, int64(1), ts.calls.Load(), "concurrent refreshes must collapse to one fetch")
}

func TestAuthProvider_InvalidateForcesRefetch(t *testing.T) {
	ts := newTokenServer(respondToken("tok", 3600))
	defer ts.Close()

	p := newAuthProvider(t, ts)

	_, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)

	p.Invalidate()

	_, err = p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), ts.calls.Load())
}

func TestAuthProvider_RejectedCredentials(t *testing.T) {
	ts := newTokenServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer ts.Close()

	p := newAuthProvider(t, ts)

	_, err := p.AuthorizationHeader(context.Background())
	require.Error(t, err)

	e, ok := carrier.AsError(err)
	require.True(t, ok)
	assert.Equal(t, carrier.CodeAuthFailed, e.Code)
	assert.False(t, e.Retryable)
	assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
}

func TestAuthProvider_MissingAccessToken(t *testing.T) {
	ts := newTokenServer(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer","expires_in":3600}`))
	})
	defer ts.Close()

	p := newAuthProvider(t, ts)

	_, err := p.AuthorizationHeader(context.Background())
	require.Error(t, err)

	e, ok := carrier.AsError(err)
	require.True(t, ok)
	assert.Equal(t, carrier.CodeAuthFailed, e.Code)
}

func TestAuthProvider_FailedRefreshDoesNotWedge(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	ts := newTokenServer(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		respondToken("tok-after-recovery", 3600)(w, r)
	})
	defer ts.Close()

	p := newAuthProvider(t, ts)

	_, err := p.AuthorizationHeader(context.Background())
	require.Error(t, err)

	fail.Store(false)
	header, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-after-recovery", header)
}

func TestAuthProvider_RefreshHook(t *testing.T) {
	ts := newTokenServer(respondToken("tok", 3600))
	defer ts.Close()

	var hookErrs []error
	p := ups.NewAuthProvider(ups.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      ts.URL,
		Timeout:      5 * time.Second,
		OnTokenRefresh: func(err error) {
			hookErrs = append(hookErrs, err)
		},
	}, testLogger())

	_, err := p.AuthorizationHeader(context.Background())
	require.NoError(t, err)
	require.Len(t, hookErrs, 1)
	assert.NoError(t, hookErrs[0])
}
