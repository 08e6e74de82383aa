// Package models defines the records returned by external government
// registries and cached by the registry service.
package models

import "time"

// GeographyRecord is the authoritative state/municipality pair registered
// for a postal code.
type GeographyRecord struct {
	PostalCode   string    `json:"postal_code"`
	State        string    `json:"state"`
	Municipality string    `json:"municipality"`
	Source       string    `json:"source,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// TaxpayerRecord is the legal name registered for an RFC in one fiscal
// environment. Records from different environments never satisfy each other.
type TaxpayerRecord struct {
	RFC         string    `json:"rfc"`
	LegalName   string    `json:"legal_name"`
	Environment string    `json:"environment"`
	Source      string    `json:"source,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// CertificateRecord describes the signing certificate currently active for
// an account, including the RFC it is bound to and its validity window.
type CertificateRecord struct {
	AccountID    string    `json:"account_id"`
	RFC          string    `json:"rfc"`
	SerialNumber string    `json:"serial_number"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
}

// Expired reports whether the certificate's validity window has elapsed.
func (c CertificateRecord) Expired(now time.Time) bool {
	return now.After(c.ValidUntil)
}
