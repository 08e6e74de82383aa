package service

import (
	"context"

	"cartaporte/internal/validation/models"
	dErrors "cartaporte/pkg/domain-errors"
	pstrings "cartaporte/pkg/platform/strings"
)

// GeoValidator checks that a postal code's declared state and municipality
// match the authoritative geography registry. The two fields are compared
// independently so a caller sees exactly which one is wrong.
type GeoValidator struct {
	registry GeographyLookup
}

// NewGeoValidator builds a geography correlation validator.
func NewGeoValidator(registry GeographyLookup) *GeoValidator {
	return &GeoValidator{registry: registry}
}

// Correlate compares the declared state/municipality against the registry
// record for postalCode. Comparison is case and diacritic insensitive.
// fieldPrefix is the dotted path of the address being checked.
//
// A missing registry record and a lookup timeout are findings, not faults;
// only an unreachable registry propagates as an error.
func (v *GeoValidator) Correlate(ctx context.Context, fieldPrefix, postalCode, declaredState, declaredMunicipality string) ([]models.ValidationError, error) {
	record, err := v.registry.Geography(ctx, postalCode)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			return []models.ValidationError{
				models.NewError(models.CodePostalCodeNotFound, fieldPrefix+".postalCode", postalCode),
			}, nil
		}
		return nil, err
	}

	var findings []models.ValidationError
	if !geoEqual(declaredState, record.State) {
		findings = append(findings, models.NewError(models.CodeStateMismatch,
			fieldPrefix+".state", declaredState, record.State, postalCode))
	}
	if !geoEqual(declaredMunicipality, record.Municipality) {
		findings = append(findings, models.NewError(models.CodeMunicipalityMismatch,
			fieldPrefix+".municipality", declaredMunicipality, record.Municipality, postalCode))
	}
	return findings, nil
}

// geoEqual compares two place names ignoring case and diacritics, so
// "Mérida" and "MERIDA" correlate.
func geoEqual(declared, authoritative string) bool {
	return pstrings.EqualFold(declared, authoritative)
}
