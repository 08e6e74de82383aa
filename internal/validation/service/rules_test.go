package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"cartaporte/internal/registry/models"
	valmodels "cartaporte/internal/validation/models"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

const (
	issuerRFC    = "TLO010203AB9"
	issuerName   = "TRANSPORTES LOPEZ SA DE CV"
	recipientRFC = "LOGI840315QX2"
	operatorRFC  = "GODE840315QX2"
	accountID    = "acct-test"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeRegistry satisfies the three lookup ports with seeded records.
type fakeRegistry struct {
	geo       map[string]*models.GeographyRecord
	taxpayers map[string]*models.TaxpayerRecord
	certs     map[string]*models.CertificateRecord

	geoErr  error
	taxErr  error
	certErr error
}

func (f *fakeRegistry) Geography(_ context.Context, postalCode string) (*models.GeographyRecord, error) {
	if f.geoErr != nil {
		return nil, f.geoErr
	}
	record, ok := f.geo[postalCode]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "postal code not found")
	}
	return record, nil
}

func (f *fakeRegistry) Taxpayer(_ context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error) {
	if f.taxErr != nil {
		return nil, f.taxErr
	}
	record, ok := f.taxpayers[string(env)+":"+rfc]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "rfc not registered")
	}
	return record, nil
}

func (f *fakeRegistry) ActiveCertificate(_ context.Context, accountID string) (*models.CertificateRecord, error) {
	if f.certErr != nil {
		return nil, f.certErr
	}
	record, ok := f.certs[accountID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active certificate")
	}
	return record, nil
}

type ValidatorSuite struct {
	suite.Suite
	registry  *fakeRegistry
	validator *Validator
}

func (s *ValidatorSuite) SetupTest() {
	s.registry = &fakeRegistry{
		geo: map[string]*models.GeographyRecord{
			"44100": {PostalCode: "44100", State: "Jalisco", Municipality: "Guadalajara"},
			"97100": {PostalCode: "97100", State: "Yucatán", Municipality: "Mérida"},
		},
		taxpayers: map[string]*models.TaxpayerRecord{
			"sandbox:" + issuerRFC: {RFC: issuerRFC, LegalName: issuerName},
		},
		certs: map[string]*models.CertificateRecord{
			accountID: {
				AccountID:  accountID,
				RFC:        issuerRFC,
				ValidFrom:  fixedNow.AddDate(-1, 0, 0),
				ValidUntil: fixedNow.AddDate(1, 0, 0),
			},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return fixedNow }
	s.validator = NewValidator(
		NewGeoValidator(s.registry),
		NewIdentityValidator(s.registry, s.registry, WithIdentityClock(clock)),
		NewScoreCalculator(defaultScoring()),
		WithLogger(logger),
		WithClock(clock),
	)
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

// perfectDocument builds a document that passes every check against the
// seeded registry.
func (s *ValidatorSuite) perfectDocument() waybill.Document {
	t0 := fixedNow.Add(-4 * time.Hour)
	t1 := fixedNow.Add(-1 * time.Hour)
	distance := 540.0
	weight := 1250.0
	value := 18000.0

	return waybill.Document{
		Issuer: waybill.Issuer{
			RFC:         issuerRFC,
			LegalName:   issuerName,
			TaxRegime:   "601",
			Environment: waybill.EnvironmentSandbox,
		},
		Recipient: waybill.Recipient{RFC: recipientRFC, LegalName: "LOGISTICA INTEGRAL DEL BAJIO SA"},
		Locations: []waybill.Location{
			{
				Type:      waybill.LocationOrigin,
				RFC:       issuerRFC,
				LegalName: issuerName,
				Address: &waybill.Address{
					Street:       "Av. Vallarta 1234",
					PostalCode:   "44100",
					State:        "Jalisco",
					Municipality: "Guadalajara",
					Country:      "MEX",
				},
				Timestamp: &t0,
			},
			{
				Type:      waybill.LocationDestination,
				RFC:       recipientRFC,
				LegalName: "LOGISTICA INTEGRAL DEL BAJIO SA",
				Address: &waybill.Address{
					Street:       "Calle 60 455",
					PostalCode:   "97100",
					State:        "Yucatan",
					Municipality: "MERIDA",
					Country:      "MEX",
				},
				Timestamp:  &t1,
				DistanceKM: &distance,
			},
		},
		Goods: []waybill.Good{
			{
				ClassificationCode: "24131510",
				Description:        "Cemento gris",
				Quantity:           50,
				UnitCode:           "TNE",
				WeightKG:           &weight,
				Value:              &value,
			},
		},
		Vehicle: &waybill.Vehicle{Plate: "ABC1234", PermitType: "TPAF01", PermitNumber: "123456"},
		Agents: []waybill.TransportAgent{
			{Role: waybill.RoleOperator, RFC: operatorRFC, LegalName: "GUSTAVO OPERADOR", LicenseNumber: "LIC-998877"},
		},
	}
}

func (s *ValidatorSuite) validate(doc waybill.Document) *valmodels.Result {
	result, err := s.validator.Validate(context.Background(), accountID, doc)
	s.Require().NoError(err)
	return result
}

func codes(findings []valmodels.ValidationError) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func (s *ValidatorSuite) TestPerfectDocumentIsValid() {
	result := s.validate(s.perfectDocument())

	s.True(result.Valid)
	s.Empty(result.Errors)
	s.Empty(result.Warnings)
	s.Equal(100, result.Score)
	s.Equal(fixedNow, result.Timestamp)
}

// Declared place names pass against the registry despite case and diacritic
// differences; the perfect document already submits "Yucatan"/"MERIDA"
// against "Yucatán"/"Mérida".

func (s *ValidatorSuite) TestMissingDestination() {
	doc := s.perfectDocument()
	doc.Locations[1].Type = waybill.LocationWaypoint

	result := s.validate(doc)

	s.False(result.Valid)
	s.Equal([]string{valmodels.CodeMissingDestination}, codes(result.Errors))
}

func (s *ValidatorSuite) TestDestinationRequiresDistance() {
	doc := s.perfectDocument()
	doc.Locations[1].DistanceKM = nil

	result := s.validate(doc)

	s.False(result.Valid)
	s.Contains(codes(result.Errors), valmodels.CodeMissingDistance)
}

func (s *ValidatorSuite) TestIssuerNameComparisonNormalizes() {
	s.T().Run("case and whitespace variants still pass", func(t *testing.T) {
		doc := s.perfectDocument()
		doc.Issuer.LegalName = "  Transportes   López sa de cv "

		result := s.validate(doc)

		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	s.T().Run("a real word difference is always critical", func(t *testing.T) {
		doc := s.perfectDocument()
		doc.Issuer.LegalName = "TRANSPORTES LOPES SA DE CV"

		result := s.validate(doc)

		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		finding := result.Errors[0]
		assert.Equal(t, valmodels.CodeIssuerNameMismatch, finding.Code)
		assert.Equal(t, valmodels.SeverityCritical, finding.Severity)
		// Both names verbatim so the caller can reconcile instantly.
		assert.Contains(t, finding.Message, "TRANSPORTES LOPES SA DE CV")
		assert.Contains(t, finding.Message, issuerName)
	})
}

func (s *ValidatorSuite) TestStateMismatchIsIndependentOfMunicipality() {
	doc := s.perfectDocument()
	doc.Locations[0].Address.State = "CDMX"

	result := s.validate(doc)

	s.False(result.Valid)
	s.Equal([]string{valmodels.CodeStateMismatch}, codes(result.Errors))
}

func (s *ValidatorSuite) TestUnknownPostalCode() {
	doc := s.perfectDocument()
	doc.Locations[0].Address.PostalCode = "99999"

	result := s.validate(doc)

	s.Contains(codes(result.Errors), valmodels.CodePostalCodeNotFound)
}

func (s *ValidatorSuite) TestPostalCodeShape() {
	doc := s.perfectDocument()
	doc.Locations[0].Address.PostalCode = "441"

	result := s.validate(doc)

	s.Contains(codes(result.Errors), valmodels.CodePostalCodeNotFiveDigits)
}

func (s *ValidatorSuite) TestAllChecksRunWithoutEarlyExit() {
	result := s.validate(waybill.Document{})

	s.False(result.Valid)
	found := codes(result.Errors)
	for _, expected := range []string{
		valmodels.CodeTooFewLocations,
		valmodels.CodeMissingOrigin,
		valmodels.CodeMissingDestination,
		valmodels.CodeNoGoods,
		valmodels.CodeMissingVehicle,
		valmodels.CodeNoAgents,
		valmodels.CodeIssuerRFCInvalid,
		valmodels.CodeRecipientRFCInvalid,
	} {
		s.Contains(found, expected)
	}
}

func (s *ValidatorSuite) TestTimestampsMustBeChronological() {
	doc := s.perfectDocument()
	earlier := fixedNow.Add(-10 * time.Hour)
	doc.Locations[1].Timestamp = &earlier

	result := s.validate(doc)

	s.Contains(codes(result.Errors), valmodels.CodeTimestampsOutOfOrder)
}

func (s *ValidatorSuite) TestEveryOutOfOrderStopIsFlagged() {
	doc := s.perfectDocument()
	// Origin 10:00, waypoint 09:00, destination 09:30: both later stops
	// precede the origin and each must be flagged on its own.
	t0 := fixedNow.Add(-2 * time.Hour)
	t1 := t0.Add(-time.Hour)
	t2 := t0.Add(-30 * time.Minute)
	waypoint := doc.Locations[0]
	waypoint.Type = waybill.LocationWaypoint
	waypoint.Timestamp = &t1
	doc.Locations[0].Timestamp = &t0
	doc.Locations[1].Timestamp = &t2
	doc.Locations = []waybill.Location{doc.Locations[0], waypoint, doc.Locations[1]}

	result := s.validate(doc)

	found := codes(result.Errors)
	s.Equal(2, countOf(found, valmodels.CodeTimestampsOutOfOrder))

	fields := make([]string, 0, len(result.Errors))
	for _, f := range result.Errors {
		if f.Code == valmodels.CodeTimestampsOutOfOrder {
			fields = append(fields, f.Field)
		}
	}
	s.Equal([]string{"locations[1].timestamp", "locations[2].timestamp"}, fields)
}

func countOf(codes []string, code string) int {
	n := 0
	for _, c := range codes {
		if c == code {
			n++
		}
	}
	return n
}

func (s *ValidatorSuite) TestGoodsChecks() {
	doc := s.perfectDocument()
	negative := -1.0
	doc.Goods = append(doc.Goods, waybill.Good{
		Description: "Solvente industrial",
		Quantity:    2,
		UnitCode:    "LTR",
		Value:       &negative,
		Hazardous:   true,
	})

	result := s.validate(doc)

	s.False(result.Valid)
	found := codes(result.Errors)
	s.Contains(found, valmodels.CodeGoodMissingClassification)
	s.Contains(found, valmodels.CodeGoodMissingWeight)
	s.Contains(found, valmodels.CodeHazardousMissingCode)
	// The non-positive value is advisory only.
	s.Equal([]string{valmodels.CodeGoodNonPositiveValue}, codes(result.Warnings))
}

func (s *ValidatorSuite) TestWarningsDoNotBlock() {
	doc := s.perfectDocument()
	zero := 0.0
	doc.Goods[0].Value = &zero

	result := s.validate(doc)

	s.True(result.Valid)
	s.Empty(result.Errors)
	s.Equal([]string{valmodels.CodeGoodNonPositiveValue}, codes(result.Warnings))
	s.Equal(100, result.Score)
}

func (s *ValidatorSuite) TestOperatorRequirements() {
	doc := s.perfectDocument()
	doc.Agents[0].LicenseNumber = ""
	doc.Agents = append(doc.Agents, waybill.TransportAgent{
		Role: waybill.RoleOwner, RFC: "BAD", LegalName: "DUEÑO",
	})

	result := s.validate(doc)

	found := codes(result.Errors)
	s.Contains(found, valmodels.CodeOperatorMissingLicense)
	s.Contains(found, valmodels.CodeAgentRFCInvalid)
}

func (s *ValidatorSuite) TestNoOperatorAgent() {
	doc := s.perfectDocument()
	doc.Agents[0].Role = waybill.RoleOwner

	result := s.validate(doc)

	s.Contains(codes(result.Errors), valmodels.CodeNoOperator)
}

func (s *ValidatorSuite) TestIssuerNotRegistered() {
	doc := s.perfectDocument()
	doc.Issuer.Environment = waybill.EnvironmentProduction // seeded only in sandbox

	result := s.validate(doc)

	s.False(result.Valid)
	s.Contains(codes(result.Errors), valmodels.CodeIssuerNotRegistered)
	s.Equal(valmodels.SeverityCritical, valmodels.SeverityOf(valmodels.CodeIssuerNotRegistered))
}

func (s *ValidatorSuite) TestLookupTimeoutIsNeverAPass() {
	s.registry.taxErr = dErrors.New(dErrors.CodeTimeout, "taxpayer lookup timed out")

	result := s.validate(s.perfectDocument())

	s.False(result.Valid)
	s.Contains(codes(result.Errors), valmodels.CodeIssuerNotRegistered)
}

func (s *ValidatorSuite) TestRegistryOutageAbortsTheRun() {
	s.registry.taxErr = dErrors.New(dErrors.CodeRegistryUnavailable, "registry unreachable")

	_, err := s.validator.Validate(context.Background(), accountID, s.perfectDocument())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRegistryUnavailable))
}

func (s *ValidatorSuite) TestCertificateBinding() {
	s.T().Run("missing active certificate is critical", func(t *testing.T) {
		delete(s.registry.certs, accountID)
		result := s.validate(s.perfectDocument())

		assert.False(t, result.Valid)
		assert.Contains(t, codes(result.Errors), valmodels.CodeNoActiveCertificate)
	})

	s.SetupTest()
	s.T().Run("certificate bound to another RFC is critical", func(t *testing.T) {
		s.registry.certs[accountID].RFC = "XAXX010101AB1"
		result := s.validate(s.perfectDocument())

		assert.False(t, result.Valid)
		assert.Contains(t, codes(result.Errors), valmodels.CodeCertificateRFCMismatch)
	})

	s.SetupTest()
	s.T().Run("elapsed validity window is an error", func(t *testing.T) {
		s.registry.certs[accountID].ValidUntil = fixedNow.Add(-time.Hour)
		result := s.validate(s.perfectDocument())

		assert.False(t, result.Valid)
		assert.Contains(t, codes(result.Errors), valmodels.CodeCertificateExpired)
		assert.Equal(t, valmodels.SeverityError, valmodels.SeverityOf(valmodels.CodeCertificateExpired))
	})

	s.SetupTest()
	s.T().Run("validity is judged by the injected clock, not wall time", func(t *testing.T) {
		// Same certificate, clock moved past its window: the verdict must
		// flip from the suite's in-window result.
		afterExpiry := fixedNow.AddDate(2, 0, 0)
		late := NewValidator(
			NewGeoValidator(s.registry),
			NewIdentityValidator(s.registry, s.registry,
				WithIdentityClock(func() time.Time { return afterExpiry })),
			NewScoreCalculator(defaultScoring()),
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			WithClock(func() time.Time { return afterExpiry }),
		)

		result, err := late.Validate(context.Background(), accountID, s.perfectDocument())
		require.NoError(t, err)
		assert.Contains(t, codes(result.Errors), valmodels.CodeCertificateExpired)
	})
}

func (s *ValidatorSuite) TestScoreReflectsFindings() {
	doc := s.perfectDocument()
	doc.Issuer.LegalName = "OTRA EMPRESA SA DE CV" // one critical
	doc.Locations[1].DistanceKM = nil              // one error

	result := s.validate(doc)

	s.False(result.Valid)
	s.Equal(96, result.Score)
}
