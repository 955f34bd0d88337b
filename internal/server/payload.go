package server

import (
	"github.com/tournevent/ratebridge/pkg/carrier"
)

// RateRequestPayload is the JSON body of POST /v1/rates.
type RateRequestPayload struct {
	Carriers     []string         `json:"carriers,omitempty"`
	Origin       AddressPayload   `json:"origin"`
	Destination  AddressPayload   `json:"destination"`
	Packages     []PackagePayload `json:"packages"`
	ServiceLevel string           `json:"service_level,omitempty"`
}

// AddressPayload is the JSON address shape.
type AddressPayload struct {
	StreetLines []string `json:"street_lines"`
	City        string   `json:"city"`
	StateCode   string   `json:"state_code"`
	PostalCode  string   `json:"postal_code"`
	CountryCode string   `json:"country_code"`
}

// PackagePayload is the JSON package shape.
type PackagePayload struct {
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToDomain converts the payload into the carrier-agnostic request model.
func (p *RateRequestPayload) ToDomain() *carrier.RateRequest {
	packages := make([]carrier.Package, len(p.Packages))
	for i, pkg := range p.Packages {
		packages[i] = carrier.Package{
			Weight: pkg.Weight,
			Length: pkg.Length,
			Width:  pkg.Width,
			Height: pkg.Height,
		}
	}
	return &carrier.RateRequest{
		Origin:       p.Origin.toDomain(),
		Destination:  p.Destination.toDomain(),
		Packages:     packages,
		ServiceLevel: carrier.ServiceLevel(p.ServiceLevel),
	}
}

func (a AddressPayload) toDomain() carrier.Address {
	return carrier.Address{
		StreetLines: a.StreetLines,
		City:        a.City,
		StateCode:   a.StateCode,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
	}
}

// RatesResponsePayload is the JSON body returned by POST /v1/rates.
type RatesResponsePayload struct {
	Results []RateResultPayload `json:"results"`
	Errors  []RateErrorPayload  `json:"errors,omitempty"`
	Cached  bool                `json:"cached,omitempty"`
}

// RateResultPayload is one carrier's successful quote set.
type RateResultPayload struct {
	Carrier   string         `json:"carrier"`
	RequestID string         `json:"request_id"`
	Quotes    []QuotePayload `json:"quotes"`
}

// QuotePayload is one normalized quote.
type QuotePayload struct {
	ServiceLevel string  `json:"service_level"`
	ServiceName  string  `json:"service_name"`
	TotalCost    float64 `json:"total_cost"`
	Currency     string  `json:"currency"`
	TransitDays  int     `json:"transit_days,omitempty"`
	Carrier      string  `json:"carrier"`
}

// RateErrorPayload is one carrier's failure, reported alongside the other
// carriers' successes.
type RateErrorPayload struct {
	Carrier   string `json:"carrier"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// BuildResponsePayload converts registry fan-out output to the JSON shape.
func BuildResponsePayload(results []*carrier.RateResponse, errs []error) RatesResponsePayload {
	out := RatesResponsePayload{
		Results: make([]RateResultPayload, 0, len(results)),
	}

	for _, resp := range results {
		result := RateResultPayload{
			RequestID: resp.RequestID,
			Quotes:    make([]QuotePayload, 0, len(resp.Quotes)),
		}
		for _, q := range resp.Quotes {
			result.Carrier = q.Carrier
			result.Quotes = append(result.Quotes, QuotePayload{
				ServiceLevel: string(q.ServiceLevel),
				ServiceName:  q.ServiceName,
				TotalCost:    q.TotalCost,
				Currency:     q.Currency,
				TransitDays:  q.TransitDays,
				Carrier:      q.Carrier,
			})
		}
		out.Results = append(out.Results, result)
	}

	for _, err := range errs {
		e := carrier.Wrap(carrier.SystemCarrier, err)
		out.Errors = append(out.Errors, RateErrorPayload{
			Carrier:   e.Carrier,
			Code:      string(e.Code),
			Message:   e.Message,
			Retryable: e.Retryable,
		})
	}

	return out
}
