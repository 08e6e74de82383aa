// Package models defines the versioned artifacts produced for a logical
// waybill document.
package models

import "time"

// Type classifies an artifact. Base types are produced from scratch; derived
// types are produced by transforming a prior artifact. The distinction
// drives version assignment.
type Type string

const (
	TypeXML        Type = "xml"
	TypeXMLSigned  Type = "xml_signed"
	TypeXMLStamped Type = "xml_stamped"
	TypePDF        Type = "pdf"
)

// Valid reports whether the type is a known artifact type.
func (t Type) Valid() bool {
	switch t {
	case TypeXML, TypeXMLSigned, TypeXMLStamped, TypePDF:
		return true
	}
	return false
}

// Derived reports whether the type is produced by transforming a prior
// artifact. Derivation is a property of the enum, never inferred from the
// type name.
func (t Type) Derived() bool {
	return t == TypeXMLSigned || t == TypeXMLStamped
}

// Artifact is one versioned, immutable output tied to a logical document.
// Records are never deleted; archiving flips Active off and keeps the record
// queryable through the history path.
type Artifact struct {
	ID          string            `json:"id"`
	DocumentID  string            `json:"documentId"`
	Type        Type              `json:"type"`
	Version     Version           `json:"version"`
	Content     []byte            `json:"content,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Active      bool              `json:"active"`
}
