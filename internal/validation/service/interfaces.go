package service

import (
	"context"

	regmodels "cartaporte/internal/registry/models"
	"cartaporte/internal/waybill"
)

// GeographyLookup resolves a postal code to its authoritative geography
// record. Implemented by the registry service.
type GeographyLookup interface {
	Geography(ctx context.Context, postalCode string) (*regmodels.GeographyRecord, error)
}

// TaxpayerLookup resolves an RFC to its registered legal name within one
// fiscal environment.
type TaxpayerLookup interface {
	Taxpayer(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*regmodels.TaxpayerRecord, error)
}

// CertificateLookup resolves an account to its active signing certificate.
type CertificateLookup interface {
	ActiveCertificate(ctx context.Context, accountID string) (*regmodels.CertificateRecord, error)
}
