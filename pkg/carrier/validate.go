package carrier

import (
	"fmt"
)

// Validate checks a rate request against the domain bounds. It is total and
// runs before any network call: a request that fails validation never
// reaches the auth provider or the carrier transport.
func Validate(req *RateRequest) error {
	if req == nil {
		return validationError("request is required", nil)
	}

	if err := validateAddress("origin", &req.Origin); err != nil {
		return err
	}
	if err := validateAddress("destination", &req.Destination); err != nil {
		return err
	}

	if len(req.Packages) == 0 {
		return validationError("at least one package is required", nil)
	}
	if len(req.Packages) > MaxPackages {
		return validationError(
			fmt.Sprintf("too many packages: %d (max %d)", len(req.Packages), MaxPackages),
			map[string]any{"packages": len(req.Packages)},
		)
	}
	for i := range req.Packages {
		if err := validatePackage(i, &req.Packages[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateAddress(field string, addr *Address) error {
	if len(addr.StreetLines) == 0 || len(addr.StreetLines) > MaxStreetLines {
		return validationError(
			fmt.Sprintf("%s: between 1 and %d street lines required", field, MaxStreetLines),
			map[string]any{"field": field},
		)
	}
	for _, line := range addr.StreetLines {
		if line == "" {
			return validationError(
				fmt.Sprintf("%s: street lines must be non-empty", field),
				map[string]any{"field": field},
			)
		}
	}
	if addr.City == "" || len(addr.City) > MaxCityLength {
		return validationError(
			fmt.Sprintf("%s: city must be between 1 and %d characters", field, MaxCityLength),
			map[string]any{"field": field, "city": addr.City},
		)
	}
	if len(addr.StateCode) != 2 {
		return validationError(
			fmt.Sprintf("%s: state code must be exactly 2 characters", field),
			map[string]any{"field": field, "state": addr.StateCode},
		)
	}
	if len(addr.PostalCode) < MinPostalCodeLength || len(addr.PostalCode) > MaxPostalCodeLength {
		return validationError(
			fmt.Sprintf("%s: postal code must be between %d and %d characters",
				field, MinPostalCodeLength, MaxPostalCodeLength),
			map[string]any{"field": field, "postal_code": addr.PostalCode},
		)
	}
	if len(addr.CountryCode) != 2 {
		return validationError(
			fmt.Sprintf("%s: country code must be exactly 2 characters", field),
			map[string]any{"field": field, "country": addr.CountryCode},
		)
	}
	return nil
}

func validatePackage(index int, pkg *Package) error {
	if pkg.Weight <= 0 || pkg.Weight > MaxPackageWeight {
		return validationError(
			fmt.Sprintf("package %d: weight must be positive and at most %.0f", index, MaxPackageWeight),
			map[string]any{"package": index, "weight": pkg.Weight},
		)
	}
	dims := map[string]float64{
		"length": pkg.Length,
		"width":  pkg.Width,
		"height": pkg.Height,
	}
	for name, value := range dims {
		if value <= 0 || value > MaxPackageDimension {
			return validationError(
				fmt.Sprintf("package %d: %s must be positive and at most %.0f", index, name, MaxPackageDimension),
				map[string]any{"package": index, name: value},
			)
		}
	}
	return nil
}

func validationError(message string, details map[string]any) *Error {
	err := NewError("", CodeValidation, message)
	if details != nil {
		err = err.WithDetails(details)
	}
	return err
}
