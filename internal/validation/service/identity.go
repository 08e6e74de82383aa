package service

import (
	"context"
	"time"

	"cartaporte/internal/validation/models"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
	pstrings "cartaporte/pkg/platform/strings"
)

// IdentityValidator verifies issuer identity against the government RFC
// registry and against the account's active signing certificate. Its
// findings are critical: an issuer whose name or certificate does not match
// the registry is rejected by the tax authority without recourse, no matter
// how clean the rest of the document is.
type IdentityValidator struct {
	taxpayers    TaxpayerLookup
	certificates CertificateLookup
	now          func() time.Time
}

// IdentityOption configures the IdentityValidator.
type IdentityOption func(*IdentityValidator)

// WithIdentityClock overrides the clock used for certificate validity
// checks. Used by tests.
func WithIdentityClock(now func() time.Time) IdentityOption {
	return func(v *IdentityValidator) { v.now = now }
}

// NewIdentityValidator builds an identity validator over the registry
// lookups.
func NewIdentityValidator(taxpayers TaxpayerLookup, certificates CertificateLookup, opts ...IdentityOption) *IdentityValidator {
	v := &IdentityValidator{
		taxpayers:    taxpayers,
		certificates: certificates,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyIssuer checks that the declared legal name matches the name
// registered for the issuer's RFC in the issuer's fiscal environment. Names
// are compared after normalization (uppercase, diacritics stripped,
// whitespace collapsed); a mismatch reports both names verbatim so the
// caller can reconcile instantly.
//
// A registry miss and a lookup timeout are critical findings, never a pass.
// Only an unreachable registry propagates as an error.
func (v *IdentityValidator) VerifyIssuer(ctx context.Context, issuer waybill.Issuer) ([]models.ValidationError, error) {
	record, err := v.taxpayers.Taxpayer(ctx, issuer.Environment, issuer.RFC.String())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			return []models.ValidationError{
				models.NewError(models.CodeIssuerNotRegistered, "issuer.rfc", issuer.RFC.String()),
			}, nil
		}
		return nil, err
	}

	if pstrings.NormalizeLegalName(issuer.LegalName) != pstrings.NormalizeLegalName(record.LegalName) {
		return []models.ValidationError{
			models.NewError(models.CodeIssuerNameMismatch, "issuer.legalName",
				issuer.LegalName, record.LegalName),
		}, nil
	}
	return nil, nil
}

// VerifyCertificateBinding checks that the declared issuer RFC is the RFC
// bound to the account's active signing certificate, and that the
// certificate's validity window has not elapsed.
func (v *IdentityValidator) VerifyCertificateBinding(ctx context.Context, accountID string, declared waybill.RFC) ([]models.ValidationError, error) {
	cert, err := v.certificates.ActiveCertificate(ctx, accountID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeTimeout) {
			return []models.ValidationError{
				models.NewError(models.CodeNoActiveCertificate, "issuer.rfc"),
			}, nil
		}
		return nil, err
	}

	var findings []models.ValidationError
	if cert.RFC != declared.String() {
		findings = append(findings, models.NewError(models.CodeCertificateRFCMismatch,
			"issuer.rfc", declared.String(), cert.RFC))
	}
	if cert.Expired(v.now()) {
		findings = append(findings, models.NewError(models.CodeCertificateExpired,
			"issuer.rfc", cert.ValidUntil.Format(time.RFC3339)))
	}
	return findings, nil
}
