package ups

import (
	"context"
)

// APIClient defines the interface for UPS Rating API operations. This
// abstraction allows for mock implementations during testing and real
// implementations in production. The Authorization header is supplied per
// call because the token lifecycle is owned by the AuthProvider.
type APIClient interface {
	// GetRates posts a rating request and returns the parsed wire response.
	GetRates(ctx context.Context, authHeader, transactionID string, req *RatingRequest) (*RatingResponse, error)
}

// ============================================================================
// Wire Request/Response Types (match the UPS Rating JSON API structure)
// ============================================================================

// RatingRequest is the vendor rate request envelope.
// POST /api/rating/{version}/Rate
type RatingRequest struct {
	RateRequest RateRequestBody `json:"RateRequest"`
}

// RateRequestBody contains the request options and the shipment to rate.
type RateRequestBody struct {
	Request  RequestOptions `json:"Request"`
	Shipment WireShipment   `json:"Shipment"`
}

// RequestOptions controls the rating mode. "Shop" rates all services,
// "Rate" rates the single requested service.
type RequestOptions struct {
	RequestOption        string               `json:"RequestOption"`
	TransactionReference TransactionReference `json:"TransactionReference"`
}

// TransactionReference correlates requests and responses for support.
type TransactionReference struct {
	CustomerContext string `json:"CustomerContext,omitempty"`
}

// WireShipment describes the shipment being rated.
type WireShipment struct {
	Shipper               Party                  `json:"Shipper"`
	ShipTo                Party                  `json:"ShipTo"`
	ShipFrom              Party                  `json:"ShipFrom"`
	Service               *ServiceCode           `json:"Service,omitempty"`
	ShipmentRatingOptions *ShipmentRatingOptions `json:"ShipmentRatingOptions,omitempty"`
	Package               []WirePackage          `json:"Package"`
}

// Party is a shipment participant with its address.
type Party struct {
	Name          string      `json:"Name,omitempty"`
	ShipperNumber string      `json:"ShipperNumber,omitempty"`
	Address       WireAddress `json:"Address"`
}

// WireAddress is the vendor address shape.
type WireAddress struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

// ServiceCode identifies a vendor service (e.g., "03" = Ground).
type ServiceCode struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// ShipmentRatingOptions requests account-specific pricing.
type ShipmentRatingOptions struct {
	NegotiatedRatesIndicator string `json:"NegotiatedRatesIndicator,omitempty"`
}

// WirePackage is a single package. The vendor encodes numerics as strings.
type WirePackage struct {
	PackagingType CodeDescription `json:"PackagingType"`
	Dimensions    Dimensions      `json:"Dimensions"`
	PackageWeight PackageWeight   `json:"PackageWeight"`
}

// CodeDescription is the vendor's generic code/description pair.
type CodeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// Dimensions holds package dimensions in the declared unit.
type Dimensions struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Length            string          `json:"Length"`
	Width             string          `json:"Width"`
	Height            string          `json:"Height"`
}

// PackageWeight holds the package weight in the declared unit.
type PackageWeight struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

// RatingResponse is the vendor rate response envelope.
type RatingResponse struct {
	RateResponse RateResponseBody `json:"RateResponse"`
}

// RateResponseBody carries the vendor status block and the rated shipments.
type RateResponseBody struct {
	Response      ResponseBlock   `json:"Response"`
	RatedShipment []RatedShipment `json:"RatedShipment"`
}

// ResponseBlock is the vendor's own status envelope. ResponseStatus.Code
// "1" signals success; Alert carries vendor warning/error messages.
type ResponseBlock struct {
	ResponseStatus       CodeDescription      `json:"ResponseStatus"`
	Alert                []CodeDescription    `json:"Alert,omitempty"`
	TransactionReference TransactionReference `json:"TransactionReference,omitempty"`
}

// wireStatusSuccess is the ResponseStatus code signalling success.
const wireStatusSuccess = "1"

// RatedShipment is one rated service option.
type RatedShipment struct {
	Service               ServiceCode            `json:"Service"`
	TotalCharges          Charge                 `json:"TotalCharges"`
	NegotiatedRateCharges *NegotiatedRateCharges `json:"NegotiatedRateCharges,omitempty"`
	GuaranteedDelivery    *GuaranteedDelivery    `json:"GuaranteedDelivery,omitempty"`
}

// Charge is a monetary amount; MonetaryValue is a decimal string.
type Charge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// NegotiatedRateCharges carries account-specific discount pricing. When
// present, its total takes precedence over the published list rate.
type NegotiatedRateCharges struct {
	TotalCharge Charge `json:"TotalCharge"`
}

// GuaranteedDelivery is the vendor's delivery commitment.
type GuaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit,omitempty"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
	DeliveryDate          string `json:"DeliveryDate,omitempty"` // YYYY-MM-DD
}

// APIErrorResponse is the vendor error envelope returned on non-2xx statuses.
type APIErrorResponse struct {
	Response struct {
		Errors []APIErrorDetail `json:"errors"`
	} `json:"response"`
}

// APIErrorDetail is one vendor error entry.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
