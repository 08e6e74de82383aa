// Package waybill defines the normalized freight-waybill document model the
// compliance engine validates. Every field the rule engine inspects is
// explicit at the type level; optional values are pointers so "absent" and
// "zero" never blur together.
package waybill

import "time"

// FiscalEnvironment selects the identity space a document is validated
// against. Sandbox and production registries are distinct identity spaces
// and are never cross-compared.
type FiscalEnvironment string

const (
	EnvironmentSandbox    FiscalEnvironment = "sandbox"
	EnvironmentProduction FiscalEnvironment = "production"
)

// Valid reports whether the environment is one of the known identity spaces.
func (e FiscalEnvironment) Valid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

// LocationType classifies a stop on the route.
type LocationType string

const (
	LocationOrigin      LocationType = "origin"
	LocationDestination LocationType = "destination"
	LocationWaypoint    LocationType = "waypoint"
)

// AgentRole classifies a transport agent's responsibility.
type AgentRole string

const (
	RoleOperator AgentRole = "operator"
	RoleOwner    AgentRole = "owner"
	RoleTenant   AgentRole = "tenant"
)

// Issuer identifies the fiscally responsible party emitting the waybill.
type Issuer struct {
	RFC         RFC
	LegalName   string
	TaxRegime   string
	Environment FiscalEnvironment
}

// Recipient identifies the receiving party.
type Recipient struct {
	RFC       RFC
	LegalName string
}

// Address locates a stop. PostalCode, when present, must correlate with the
// declared state and municipality per the geography registry.
type Address struct {
	Street       string
	PostalCode   string
	State        string
	Municipality string
	Country      string
}

// Location is one stop on the freight route. DistanceKM is the cumulative
// distance travelled and is required only on destinations.
type Location struct {
	Type       LocationType
	RFC        RFC
	LegalName  string
	Address    *Address
	Timestamp  *time.Time
	DistanceKM *float64
}

// Good is one transported item.
type Good struct {
	ClassificationCode string
	Description        string
	Quantity           float64
	UnitCode           string
	WeightKG           *float64
	Value              *float64
	Hazardous          bool
	HazardousCode      string
}

// Vehicle describes the transporting unit and its federal permit.
type Vehicle struct {
	Plate        string
	PermitType   string
	PermitNumber string
}

// TransportAgent is a person bound to the transport operation. Operators
// must carry a license number.
type TransportAgent struct {
	Role          AgentRole
	RFC           RFC
	LegalName     string
	LicenseNumber string
}

// Document is the full normalized waybill submitted for validation.
type Document struct {
	Issuer    Issuer
	Recipient Recipient
	Locations []Location
	Goods     []Good
	Vehicle   *Vehicle
	Agents    []TransportAgent
}
