// Package carrier provides an abstraction layer for shipping-rate carriers.
package carrier

import (
	"context"
)

// Carrier defines the interface that all rate providers must implement.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "ups").
	Name() string

	// GetRates returns normalized shipping-rate quotes for a request.
	GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error)

	// SupportsServiceLevel reports whether the carrier can quote the given
	// service level. The empty level means "all services" and is always supported.
	SupportsServiceLevel(level ServiceLevel) bool
}
