package models

import "fmt"

// Finding codes, namespaced by concern. Each code maps 1:1 to a fixed message
// template and a fixed severity; callers may localize the template but must
// never alter the code.
//
//	E0xx  issuer / recipient identity
//	U0xx  locations and geography
//	M0xx  goods (mercancías)
//	A0xx  vehicle (autotransporte)
//	F0xx  transport agents (figuras de transporte)
const (
	CodeIssuerRFCInvalid       = "E001"
	CodeRecipientRFCInvalid    = "E002"
	CodeIssuerNotRegistered    = "E003"
	CodeIssuerNameMismatch     = "E004"
	CodeNoActiveCertificate    = "E005"
	CodeCertificateRFCMismatch = "E006"
	CodeCertificateExpired     = "E007"

	CodeTooFewLocations         = "U001"
	CodeMissingOrigin           = "U002"
	CodeMissingDestination      = "U003"
	CodeLocationMissingRFC      = "U004"
	CodeLocationMissingName     = "U005"
	CodeLocationMissingTime     = "U006"
	CodeLocationMissingAddress  = "U007"
	CodeMissingPostalCode       = "U008"
	CodePostalCodeNotFiveDigits = "U009"
	CodePostalCodeNotFound      = "U010"
	CodeStateMismatch           = "U011"
	CodeMunicipalityMismatch    = "U012"
	CodeMissingDistance         = "U013"
	CodeTimestampsOutOfOrder    = "U014"

	CodeNoGoods                   = "M001"
	CodeGoodMissingClassification = "M002"
	CodeGoodMissingWeight         = "M003"
	CodeGoodNonPositiveValue      = "M004"
	CodeHazardousMissingCode      = "M005"

	CodeMissingVehicle      = "A001"
	CodeMissingPlate        = "A002"
	CodeMissingPermitNumber = "A003"

	CodeNoAgents               = "F001"
	CodeNoOperator             = "F002"
	CodeOperatorMissingLicense = "F003"
	CodeAgentRFCInvalid        = "F004"

	// CodeInternal marks an infrastructure failure surfaced to the caller.
	// It is the only code produced outside the rule catalog.
	CodeInternal = "INTERNAL"
)

type codeEntry struct {
	severity Severity
	template string
}

var catalog = map[string]codeEntry{
	CodeIssuerRFCInvalid:       {SeverityError, "issuer RFC %q does not match the official RFC format"},
	CodeRecipientRFCInvalid:    {SeverityError, "recipient RFC %q does not match the official RFC format"},
	CodeIssuerNotRegistered:    {SeverityCritical, "issuer RFC %s is not in the registry; verify RFC in official registry"},
	CodeIssuerNameMismatch:     {SeverityCritical, "issuer legal name %q does not match registered name %q"},
	CodeNoActiveCertificate:    {SeverityCritical, "no active signing certificate for this account"},
	CodeCertificateRFCMismatch: {SeverityCritical, "issuer RFC %s does not match certificate RFC %s"},
	CodeCertificateExpired:     {SeverityError, "active signing certificate expired on %s"},

	CodeTooFewLocations:         {SeverityCritical, "at least two locations are required"},
	CodeMissingOrigin:           {SeverityError, "no origin location declared"},
	CodeMissingDestination:      {SeverityError, "no destination location declared"},
	CodeLocationMissingRFC:      {SeverityError, "location is missing an RFC"},
	CodeLocationMissingName:     {SeverityError, "location is missing a legal name"},
	CodeLocationMissingTime:     {SeverityError, "location is missing an arrival/departure timestamp"},
	CodeLocationMissingAddress:  {SeverityError, "location is missing an address"},
	CodeMissingPostalCode:       {SeverityError, "address is missing a postal code"},
	CodePostalCodeNotFiveDigits: {SeverityError, "postal code %q must be exactly 5 digits"},
	CodePostalCodeNotFound:      {SeverityError, "postal code %s not found in the geography registry"},
	CodeStateMismatch:           {SeverityError, "declared state %q does not match registry state %q for postal code %s"},
	CodeMunicipalityMismatch:    {SeverityError, "declared municipality %q does not match registry municipality %q for postal code %s"},
	CodeMissingDistance:         {SeverityError, "destination location is missing the cumulative distance"},
	CodeTimestampsOutOfOrder:    {SeverityError, "location timestamp precedes an earlier location's timestamp"},

	CodeNoGoods:                   {SeverityError, "at least one good is required"},
	CodeGoodMissingClassification: {SeverityError, "good is missing the product classification code"},
	CodeGoodMissingWeight:         {SeverityError, "good is missing the weight"},
	CodeGoodNonPositiveValue:      {SeverityWarning, "declared value is not positive"},
	CodeHazardousMissingCode:      {SeverityError, "hazardous good is missing the hazardous-material code"},

	CodeMissingVehicle:      {SeverityError, "vehicle information is required"},
	CodeMissingPlate:        {SeverityError, "vehicle plate is required"},
	CodeMissingPermitNumber: {SeverityError, "vehicle permit number is required"},

	CodeNoAgents:               {SeverityError, "at least one transport agent is required"},
	CodeNoOperator:             {SeverityError, "at least one transport agent with role operator is required"},
	CodeOperatorMissingLicense: {SeverityError, "operator agent is missing a license number"},
	CodeAgentRFCInvalid:        {SeverityError, "agent RFC %q does not match the official RFC format"},

	CodeInternal: {SeverityCritical, "internal error"},
}

// NewError builds a finding from the catalog. args fill the code's message
// template. Unknown codes panic; the catalog is a closed set and a miss is a
// programming error.
func NewError(code, field string, args ...any) ValidationError {
	entry, ok := catalog[code]
	if !ok {
		panic(fmt.Sprintf("validation: unknown code %q", code))
	}
	return ValidationError{
		Code:     code,
		Message:  fmt.Sprintf(entry.template, args...),
		Field:    field,
		Severity: entry.severity,
	}
}

// SeverityOf returns the fixed severity for a catalog code.
func SeverityOf(code string) Severity {
	if entry, ok := catalog[code]; ok {
		return entry.severity
	}
	return SeverityCritical
}
