// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Client is a mock carrier for testing and local runs.
type Client struct {
	name string

	// GetRatesFunc overrides the canned response when set.
	GetRatesFunc func(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error)
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// SupportsServiceLevel always reports true.
func (c *Client) SupportsServiceLevel(level carrier.ServiceLevel) bool {
	return true
}

// GetRates returns mock rate quotes.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResponse, error) {
	if c.GetRatesFunc != nil {
		return c.GetRatesFunc(ctx, req)
	}

	if err := carrier.Validate(req); err != nil {
		return nil, carrier.Wrap(c.name, err)
	}

	return &carrier.RateResponse{
		RequestID: uuid.New().String(),
		Quotes: []carrier.RateQuote{
			{
				ServiceLevel: carrier.ServiceStandard,
				ServiceName:  fmt.Sprintf("%s Standard", c.name),
				TotalCost:    12.50,
				Currency:     "USD",
				TransitDays:  5,
				Carrier:      c.name,
			},
			{
				ServiceLevel: carrier.ServiceExpress,
				ServiceName:  fmt.Sprintf("%s Express", c.name),
				TotalCost:    29.95,
				Currency:     "USD",
				TransitDays:  2,
				Carrier:      c.name,
			},
		},
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
