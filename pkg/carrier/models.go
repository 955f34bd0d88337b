package carrier

// ServiceLevel represents the normalized shipping service level.
type ServiceLevel string

const (
	ServiceStandard  ServiceLevel = "standard"
	ServiceExpress   ServiceLevel = "express"
	ServicePriority  ServiceLevel = "priority"
	ServiceOvernight ServiceLevel = "overnight"
	ServiceEconomy   ServiceLevel = "economy"
)

// Validation bounds for rate requests. Weight is in pounds, dimensions in
// inches, matching the reference vendor's published package limits.
const (
	MaxPackages         = 50
	MaxStreetLines      = 3
	MaxCityLength       = 50
	MinPostalCodeLength = 5
	MaxPostalCodeLength = 10
	MaxPackageWeight    = 150.0
	MaxPackageDimension = 108.0
)

// Address represents a shipping origin or destination.
type Address struct {
	StreetLines []string // 1..3 non-empty lines
	City        string
	StateCode   string // 2-char state/province code
	PostalCode  string
	CountryCode string // ISO 3166-1 alpha-2, e.g., "US", "CA"
}

// Package represents a package to be quoted.
type Package struct {
	Weight float64 // lb
	Length float64 // in
	Width  float64 // in
	Height float64 // in
}

// RateRequest is the carrier-agnostic rate quote request.
type RateRequest struct {
	Origin       Address
	Destination  Address
	Packages     []Package
	ServiceLevel ServiceLevel // empty = quote all services
}

// RateQuote represents a single normalized rate option.
type RateQuote struct {
	ServiceLevel ServiceLevel
	ServiceName  string
	TotalCost    float64
	Currency     string
	TransitDays  int // 0 when the carrier supplied no delivery commitment
	Carrier      string
}

// RateResponse is the normalized result of a rate call. It is created once
// per successful call and never mutated afterwards.
type RateResponse struct {
	RequestID string // correlation id for tracing and support
	Quotes    []RateQuote
}
