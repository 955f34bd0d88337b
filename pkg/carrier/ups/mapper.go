package ups

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/ratebridge/pkg/carrier"
)

// Vendor service codes for the normalized service levels.
const (
	serviceCodeGround       = "03"
	serviceCodeThreeDay     = "12"
	serviceCodeTwoDay       = "02"
	serviceCodeNextDaySaver = "13"
	serviceCodeNextDay      = "01"
)

// deliveryDateLayout is the vendor's guaranteed delivery date format.
const deliveryDateLayout = "2006-01-02"

// serviceLevelToCode maps a normalized service level to the vendor service
// code. Unknown levels fail closed with a non-retryable validation error
// so they never reach the network.
func serviceLevelToCode(level carrier.ServiceLevel) (*ServiceCode, error) {
	switch level {
	case carrier.ServiceStandard:
		return &ServiceCode{Code: serviceCodeGround, Description: "Ground"}, nil
	case carrier.ServiceEconomy:
		return &ServiceCode{Code: serviceCodeThreeDay, Description: "3 Day Select"}, nil
	case carrier.ServiceExpress:
		return &ServiceCode{Code: serviceCodeTwoDay, Description: "2nd Day Air"}, nil
	case carrier.ServicePriority:
		return &ServiceCode{Code: serviceCodeNextDaySaver, Description: "Next Day Air Saver"}, nil
	case carrier.ServiceOvernight:
		return &ServiceCode{Code: serviceCodeNextDay, Description: "Next Day Air"}, nil
	default:
		return nil, carrier.NewError(carrierName, carrier.CodeValidation,
			fmt.Sprintf("unsupported service level: %q", level))
	}
}

// serviceCodeToLevel maps a vendor service code back to the normalized
// level. Codes without a normalized equivalent map to standard.
func serviceCodeToLevel(code string) carrier.ServiceLevel {
	switch code {
	case serviceCodeGround:
		return carrier.ServiceStandard
	case serviceCodeThreeDay:
		return carrier.ServiceEconomy
	case serviceCodeTwoDay:
		return carrier.ServiceExpress
	case serviceCodeNextDaySaver:
		return carrier.ServicePriority
	case serviceCodeNextDay:
		return carrier.ServiceOvernight
	default:
		return carrier.ServiceStandard
	}
}

// toWireRequest translates a validated domain request into the vendor wire
// format. It performs no I/O.
func toWireRequest(req *carrier.RateRequest, accountNumber, requestID string) (*RatingRequest, error) {
	requestOption := "Shop"
	var service *ServiceCode
	if req.ServiceLevel != "" {
		code, err := serviceLevelToCode(req.ServiceLevel)
		if err != nil {
			return nil, err
		}
		service = code
		requestOption = "Rate"
	}

	packages := make([]WirePackage, len(req.Packages))
	for i, p := range req.Packages {
		packages[i] = WirePackage{
			PackagingType: CodeDescription{Code: "02", Description: "Customer Supplied Package"},
			Dimensions: Dimensions{
				UnitOfMeasurement: CodeDescription{Code: "IN", Description: "Inches"},
				Length:            formatMeasure(p.Length),
				Width:             formatMeasure(p.Width),
				Height:            formatMeasure(p.Height),
			},
			PackageWeight: PackageWeight{
				UnitOfMeasurement: CodeDescription{Code: "LBS", Description: "Pounds"},
				Weight:            formatMeasure(p.Weight),
			},
		}
	}

	shipment := WireShipment{
		Shipper: Party{
			ShipperNumber: accountNumber,
			Address:       addressToWire(req.Origin),
		},
		ShipFrom: Party{Address: addressToWire(req.Origin)},
		ShipTo:   Party{Address: addressToWire(req.Destination)},
		Service:  service,
		Package:  packages,
	}
	if accountNumber != "" {
		shipment.ShipmentRatingOptions = &ShipmentRatingOptions{NegotiatedRatesIndicator: "Y"}
	}

	return &RatingRequest{
		RateRequest: RateRequestBody{
			Request: RequestOptions{
				RequestOption:        requestOption,
				TransactionReference: TransactionReference{CustomerContext: requestID},
			},
			Shipment: shipment,
		},
	}, nil
}

func addressToWire(addr carrier.Address) WireAddress {
	return WireAddress{
		AddressLine:       addr.StreetLines,
		City:              addr.City,
		StateProvinceCode: addr.StateCode,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.CountryCode,
	}
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fromWireResponse translates a parsed vendor response into the normalized
// rate response, or a typed carrier error when the vendor signalled failure
// inside a transport-level success.
func fromWireResponse(resp *RatingResponse, requestID string, now time.Time) (*carrier.RateResponse, error) {
	body := &resp.RateResponse

	if body.Response.ResponseStatus.Code != wireStatusSuccess {
		return nil, carrier.NewError(carrierName, carrier.CodeAPIError,
			"carrier reported failure: "+alertSummary(body.Response.Alert)).
			WithDetails(alertDetails(body.Response.Alert))
	}

	if len(body.RatedShipment) == 0 {
		return nil, carrier.NewError(carrierName, carrier.CodeAPIError, "no quotes returned").
			WithDetails(alertDetails(body.Response.Alert))
	}

	quotes := make([]carrier.RateQuote, 0, len(body.RatedShipment))
	for _, rated := range body.RatedShipment {
		// A negotiated rate reflects discount pricing the account is
		// entitled to and takes precedence over the list rate.
		charge := rated.TotalCharges
		if rated.NegotiatedRateCharges != nil && rated.NegotiatedRateCharges.TotalCharge.MonetaryValue != "" {
			charge = rated.NegotiatedRateCharges.TotalCharge
		}

		total, err := strconv.ParseFloat(charge.MonetaryValue, 64)
		if err != nil {
			return nil, carrier.NewError(carrierName, carrier.CodeMalformedResponse,
				fmt.Sprintf("unparseable charge %q for service %s", charge.MonetaryValue, rated.Service.Code)).
				WithCause(err)
		}

		quotes = append(quotes, carrier.RateQuote{
			ServiceLevel: serviceCodeToLevel(rated.Service.Code),
			ServiceName:  serviceName(rated.Service),
			TotalCost:    total,
			Currency:     charge.CurrencyCode,
			TransitDays:  transitDays(rated.GuaranteedDelivery, now),
			Carrier:      carrierName,
		})
	}

	return &carrier.RateResponse{
		RequestID: requestID,
		Quotes:    quotes,
	}, nil
}

func serviceName(svc ServiceCode) string {
	if svc.Description != "" {
		return svc.Description
	}
	return "UPS service " + svc.Code
}

// transitDays derives the estimated transit days from the guaranteed
// delivery date; 0 means the vendor made no delivery commitment.
func transitDays(gd *GuaranteedDelivery, now time.Time) int {
	if gd == nil || gd.DeliveryDate == "" {
		return 0
	}
	delivery, err := time.Parse(deliveryDateLayout, gd.DeliveryDate)
	if err != nil {
		return 0
	}
	days := int(math.Ceil(delivery.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

func alertSummary(alerts []CodeDescription) string {
	if len(alerts) == 0 {
		return "no alert detail provided"
	}
	messages := make([]string, 0, len(alerts))
	for _, a := range alerts {
		messages = append(messages, a.Description)
	}
	return strings.Join(messages, "; ")
}

func alertDetails(alerts []CodeDescription) map[string]any {
	if len(alerts) == 0 {
		return nil
	}
	details := make(map[string]any, len(alerts))
	for _, a := range alerts {
		details[a.Code] = a.Description
	}
	return details
}
