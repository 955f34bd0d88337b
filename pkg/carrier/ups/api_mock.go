package ups

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates func(ctx context.Context, authHeader, transactionID string, req *RatingRequest) (*RatingResponse, error)

	calls atomic.Int64
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Calls returns how many times GetRates was invoked.
func (m *MockAPIClient) Calls() int {
	return int(m.calls.Load())
}

// GetRates returns canned rating data.
func (m *MockAPIClient) GetRates(ctx context.Context, authHeader, transactionID string, req *RatingRequest) (*RatingResponse, error) {
	m.calls.Add(1)

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, carrier.NewError(carrierName, carrier.CodeAPIError, "simulated API error").
			WithStatusCode(503).
			WithRetryable(true)
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, authHeader, transactionID, req)
	}

	deliveryDate := time.Now().AddDate(0, 0, 3).Format("2006-01-02")

	return &RatingResponse{
		RateResponse: RateResponseBody{
			Response: ResponseBlock{
				ResponseStatus:       CodeDescription{Code: wireStatusSuccess, Description: "Success"},
				TransactionReference: TransactionReference{CustomerContext: transactionID},
			},
			RatedShipment: []RatedShipment{
				{
					Service:      ServiceCode{Code: "03", Description: "Ground"},
					TotalCharges: Charge{CurrencyCode: "USD", MonetaryValue: "15.99"},
					NegotiatedRateCharges: &NegotiatedRateCharges{
						TotalCharge: Charge{CurrencyCode: "USD", MonetaryValue: "13.45"},
					},
				},
				{
					Service:      ServiceCode{Code: "02", Description: "2nd Day Air"},
					TotalCharges: Charge{CurrencyCode: "USD", MonetaryValue: "34.20"},
					GuaranteedDelivery: &GuaranteedDelivery{
						BusinessDaysInTransit: "2",
						DeliveryDate:          deliveryDate,
					},
				},
				{
					Service:      ServiceCode{Code: "01", Description: "Next Day Air"},
					TotalCharges: Charge{CurrencyCode: "USD", MonetaryValue: "58.75"},
					GuaranteedDelivery: &GuaranteedDelivery{
						BusinessDaysInTransit: "1",
						DeliveryByTime:        "10:30",
						DeliveryDate:          time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
					},
				},
			},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
