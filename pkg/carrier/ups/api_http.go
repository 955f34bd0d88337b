package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// defaultRatingPath is the vendor rating endpoint path.
const defaultRatingPath = "/api/rating/v2409/Rate"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	ratingPath string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL    string
	RatingPath string
	Timeout    time.Duration // per-call timeout; a hit converts to a typed TIMEOUT error
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ratingPath := cfg.RatingPath
	if ratingPath == "" {
		ratingPath = defaultRatingPath
	}

	return &HTTPAPIClient{
		baseURL:    cfg.BaseURL,
		ratingPath: ratingPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetRates posts the rating request and parses the wire response. All
// failure modes come back as typed carrier errors: transport faults as
// NETWORK_ERROR/TIMEOUT, non-2xx statuses via the status classifier, and
// undecodable 2xx bodies as MALFORMED_RESPONSE.
func (c *HTTPAPIClient) GetRates(ctx context.Context, authHeader, transactionID string, req *RatingRequest) (*RatingResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, carrier.NewError(carrierName, carrier.CodeUnknown, "failed to marshal rate request").
			WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.ratingPath, bytes.NewReader(payload))
	if err != nil {
		return nil, carrier.NewError(carrierName, carrier.CodeUnknown, "failed to build rate request").
			WithCause(err)
	}
	httpReq.Header.Set("Authorization", authHeader)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("transId", transactionID)
	httpReq.Header.Set("transactionSrc", "ratebridge")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err, "rate endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	var result RatingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, carrier.NewError(carrierName, carrier.CodeMalformedResponse, "failed to decode rate response").
			WithCause(err)
	}
	return &result, nil
}

// parseError classifies a non-2xx response and enriches it with the vendor
// error body when one is present.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	svcErr := carrier.FromStatusCode(carrierName, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var vendorErr APIErrorResponse
	if err := json.Unmarshal(body, &vendorErr); err == nil && len(vendorErr.Response.Errors) > 0 {
		messages := make([]string, 0, len(vendorErr.Response.Errors))
		details := make(map[string]any, len(vendorErr.Response.Errors))
		for _, e := range vendorErr.Response.Errors {
			messages = append(messages, e.Message)
			details[e.Code] = e.Message
		}
		svcErr.Message = svcErr.Message + ": " + strings.Join(messages, "; ")
		svcErr = svcErr.WithDetails(details)
	}
	return svcErr
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
