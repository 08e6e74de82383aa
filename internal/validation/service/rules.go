// Package service implements the waybill compliance rule engine.
//
// Validate runs a fixed battery of structural and identity checks over a
// document and aggregates every finding; it never stops early, so the caller
// sees the complete problem list in one pass instead of a trial-and-error
// loop against the tax authority.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"cartaporte/internal/validation/metrics"
	"cartaporte/internal/validation/models"
	"cartaporte/internal/waybill"
)

var fiveDigits = regexp.MustCompile(`^[0-9]{5}$`)

// Validator is the rule engine. It holds no per-document state and is safe
// for concurrent use.
type Validator struct {
	geo      *GeoValidator
	identity *IdentityValidator
	score    *ScoreCalculator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// ValidatorOption configures the Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the logger for the validator.
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = logger }
}

// WithMetrics sets the metrics collector for the validator.
func WithMetrics(m *metrics.Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

// WithClock overrides the validator's clock. Used by tests.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator wires the rule engine with its sub-validators.
func NewValidator(geo *GeoValidator, identity *IdentityValidator, score *ScoreCalculator, opts ...ValidatorOption) *Validator {
	v := &Validator{
		geo:      geo,
		identity: identity,
		score:    score,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every check and returns the aggregated result. Expected
// domain violations become findings in the result; only infrastructure
// failures (registry unreachable, cache down) return an error.
//
// accountID identifies the caller's account for the certificate binding
// check.
func (v *Validator) Validate(ctx context.Context, accountID string, doc waybill.Document) (*models.Result, error) {
	start := v.now()
	var findings []models.ValidationError

	findings = append(findings, v.checkLocationShape(doc.Locations)...)

	addressFindings, err := v.checkAddresses(ctx, doc.Locations)
	if err != nil {
		return nil, v.internalFailure(ctx, err, "address correlation")
	}
	findings = append(findings, addressFindings...)

	findings = append(findings, v.checkDistances(doc.Locations)...)
	findings = append(findings, v.checkGoods(doc.Goods)...)
	findings = append(findings, v.checkVehicle(doc.Vehicle)...)
	findings = append(findings, v.checkAgents(doc.Agents)...)
	findings = append(findings, v.checkDateCoherence(doc.Locations)...)

	identityFindings, err := v.checkIdentity(ctx, accountID, doc)
	if err != nil {
		return nil, v.internalFailure(ctx, err, "identity verification")
	}
	findings = append(findings, identityFindings...)

	result := models.NewResult(findings, v.score.Compute(findings), v.now())

	elapsed := v.now().Sub(start)
	for _, f := range findings {
		v.metrics.RecordFinding(f.Code, string(f.Severity))
	}
	v.metrics.RecordRun(result.Valid, result.Score, elapsed.Seconds())
	v.logger.InfoContext(ctx, "validation completed",
		"valid", result.Valid,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"score", result.Score,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result, nil
}

func (v *Validator) internalFailure(ctx context.Context, err error, stage string) error {
	v.metrics.RecordInternalFailure()
	v.logger.ErrorContext(ctx, "validation aborted",
		"stage", stage,
		"error", err,
	)
	return err
}

// checkLocationShape covers location count, origin/destination presence, and
// per-location required fields. Each missing concern is its own finding so
// callers can fix incrementally.
func (v *Validator) checkLocationShape(locations []waybill.Location) []models.ValidationError {
	var findings []models.ValidationError

	if len(locations) < 2 {
		findings = append(findings, models.NewError(models.CodeTooFewLocations, "locations"))
	}
	hasOrigin, hasDestination := false, false
	for _, loc := range locations {
		switch loc.Type {
		case waybill.LocationOrigin:
			hasOrigin = true
		case waybill.LocationDestination:
			hasDestination = true
		}
	}
	if !hasOrigin {
		findings = append(findings, models.NewError(models.CodeMissingOrigin, "locations"))
	}
	if !hasDestination {
		findings = append(findings, models.NewError(models.CodeMissingDestination, "locations"))
	}

	for i, loc := range locations {
		prefix := locationField(i)
		if loc.RFC.IsZero() {
			findings = append(findings, models.NewError(models.CodeLocationMissingRFC, prefix+".rfc"))
		}
		if loc.LegalName == "" {
			findings = append(findings, models.NewError(models.CodeLocationMissingName, prefix+".legalName"))
		}
		if loc.Timestamp == nil {
			findings = append(findings, models.NewError(models.CodeLocationMissingTime, prefix+".timestamp"))
		}
		if loc.Address == nil {
			findings = append(findings, models.NewError(models.CodeLocationMissingAddress, prefix+".address"))
		}
	}
	return findings
}

// checkAddresses validates postal codes and delegates state/municipality
// correlation to the geography validator. Locations without an address were
// already flagged by checkLocationShape.
func (v *Validator) checkAddresses(ctx context.Context, locations []waybill.Location) ([]models.ValidationError, error) {
	var findings []models.ValidationError
	for i, loc := range locations {
		if loc.Address == nil {
			continue
		}
		prefix := locationField(i) + ".address"
		switch {
		case loc.Address.PostalCode == "":
			findings = append(findings, models.NewError(models.CodeMissingPostalCode, prefix+".postalCode"))
		case !fiveDigits.MatchString(loc.Address.PostalCode):
			findings = append(findings, models.NewError(models.CodePostalCodeNotFiveDigits,
				prefix+".postalCode", loc.Address.PostalCode))
		default:
			geoFindings, err := v.geo.Correlate(ctx, prefix,
				loc.Address.PostalCode, loc.Address.State, loc.Address.Municipality)
			if err != nil {
				return nil, err
			}
			findings = append(findings, geoFindings...)
		}
	}
	return findings, nil
}

func (v *Validator) checkDistances(locations []waybill.Location) []models.ValidationError {
	var findings []models.ValidationError
	for i, loc := range locations {
		if loc.Type == waybill.LocationDestination && loc.DistanceKM == nil {
			findings = append(findings, models.NewError(models.CodeMissingDistance,
				locationField(i)+".distanceKm"))
		}
	}
	return findings
}

func (v *Validator) checkGoods(goods []waybill.Good) []models.ValidationError {
	var findings []models.ValidationError
	if len(goods) == 0 {
		return append(findings, models.NewError(models.CodeNoGoods, "goods"))
	}
	for i, good := range goods {
		prefix := fmt.Sprintf("goods[%d]", i)
		if good.ClassificationCode == "" {
			findings = append(findings, models.NewError(models.CodeGoodMissingClassification,
				prefix+".classificationCode"))
		}
		if good.WeightKG == nil {
			findings = append(findings, models.NewError(models.CodeGoodMissingWeight, prefix+".weightKg"))
		}
		if good.Value != nil && *good.Value <= 0 {
			findings = append(findings, models.NewError(models.CodeGoodNonPositiveValue, prefix+".value"))
		}
		if good.Hazardous && good.HazardousCode == "" {
			findings = append(findings, models.NewError(models.CodeHazardousMissingCode,
				prefix+".hazardousCode"))
		}
	}
	return findings
}

func (v *Validator) checkVehicle(vehicle *waybill.Vehicle) []models.ValidationError {
	if vehicle == nil {
		return []models.ValidationError{models.NewError(models.CodeMissingVehicle, "vehicle")}
	}
	var findings []models.ValidationError
	if vehicle.Plate == "" {
		findings = append(findings, models.NewError(models.CodeMissingPlate, "vehicle.plate"))
	}
	if vehicle.PermitNumber == "" {
		findings = append(findings, models.NewError(models.CodeMissingPermitNumber, "vehicle.permitNumber"))
	}
	return findings
}

func (v *Validator) checkAgents(agents []waybill.TransportAgent) []models.ValidationError {
	var findings []models.ValidationError
	if len(agents) == 0 {
		return append(findings, models.NewError(models.CodeNoAgents, "transportAgents"))
	}
	hasOperator := false
	for i, agent := range agents {
		prefix := fmt.Sprintf("transportAgents[%d]", i)
		if agent.Role == waybill.RoleOperator {
			hasOperator = true
			if agent.LicenseNumber == "" {
				findings = append(findings, models.NewError(models.CodeOperatorMissingLicense,
					prefix+".licenseNumber"))
			}
		}
		if !agent.RFC.Valid() {
			findings = append(findings, models.NewError(models.CodeAgentRFCInvalid,
				prefix+".rfc", agent.RFC.String()))
		}
	}
	if !hasOperator {
		findings = append(findings, models.NewError(models.CodeNoOperator, "transportAgents"))
	}
	return findings
}

// checkDateCoherence flags any location whose timestamp precedes an earlier
// location's timestamp. Locations without timestamps were already flagged
// and are skipped here.
func (v *Validator) checkDateCoherence(locations []waybill.Location) []models.ValidationError {
	var findings []models.ValidationError
	// Compare against the latest timestamp seen so far, not the previous
	// one: after one inversion every later stop must still be checked
	// against the whole prefix.
	var latest *time.Time
	for i, loc := range locations {
		if loc.Timestamp == nil {
			continue
		}
		if latest != nil && loc.Timestamp.Before(*latest) {
			findings = append(findings, models.NewError(models.CodeTimestampsOutOfOrder,
				locationField(i)+".timestamp"))
			continue
		}
		latest = loc.Timestamp
	}
	return findings
}

// checkIdentity covers RFC grammar for issuer and recipient, the registry
// name check, and the certificate binding. Identity findings are critical
// and are never suppressed by other checks passing.
func (v *Validator) checkIdentity(ctx context.Context, accountID string, doc waybill.Document) ([]models.ValidationError, error) {
	var findings []models.ValidationError

	issuerRFCValid := doc.Issuer.RFC.Valid()
	if !issuerRFCValid {
		findings = append(findings, models.NewError(models.CodeIssuerRFCInvalid,
			"issuer.rfc", doc.Issuer.RFC.String()))
	}
	if !doc.Recipient.RFC.Valid() {
		findings = append(findings, models.NewError(models.CodeRecipientRFCInvalid,
			"recipient.rfc", doc.Recipient.RFC.String()))
	}

	// Registry and certificate checks need a well-formed issuer RFC to be
	// meaningful.
	if !issuerRFCValid {
		return findings, nil
	}

	issuerFindings, err := v.identity.VerifyIssuer(ctx, doc.Issuer)
	if err != nil {
		return nil, err
	}
	findings = append(findings, issuerFindings...)

	certFindings, err := v.identity.VerifyCertificateBinding(ctx, accountID, doc.Issuer.RFC)
	if err != nil {
		return nil, err
	}
	findings = append(findings, certFindings...)

	return findings, nil
}

func locationField(i int) string {
	return fmt.Sprintf("locations[%d]", i)
}
