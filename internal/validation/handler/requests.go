package handler

import (
	"strings"
	"time"

	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

// ValidateRequest is the inbound waybill document. The shape mirrors the
// public API contract; the rule engine consumes the internal document model,
// never this DTO.
type ValidateRequest struct {
	Issuer    IssuerPayload    `json:"issuer"`
	Recipient RecipientPayload `json:"recipient"`
	Locations []LocationPayload `json:"locations"`
	Goods     []GoodPayload     `json:"goods"`
	Vehicle   *VehiclePayload   `json:"vehicle"`
	Agents    []AgentPayload    `json:"transportAgents"`
}

type IssuerPayload struct {
	RFC         string `json:"rfc"`
	LegalName   string `json:"legalName"`
	TaxRegime   string `json:"fiscalRegime"`
	Environment string `json:"fiscalEnvironment"`
}

type RecipientPayload struct {
	RFC       string `json:"rfc"`
	LegalName string `json:"legalName"`
}

type AddressPayload struct {
	Street       string `json:"street"`
	PostalCode   string `json:"postalCode"`
	State        string `json:"state"`
	Municipality string `json:"municipality"`
	Country      string `json:"country"`
}

type LocationPayload struct {
	Type       string          `json:"type"`
	RFC        string          `json:"rfc"`
	LegalName  string          `json:"legalName"`
	Address    *AddressPayload `json:"address"`
	Timestamp  *time.Time      `json:"timestamp"`
	DistanceKM *float64        `json:"distanceKm"`
}

type GoodPayload struct {
	ClassificationCode string   `json:"classificationCode"`
	Description        string   `json:"description"`
	Quantity           float64  `json:"quantity"`
	UnitCode           string   `json:"unitCode"`
	WeightKG           *float64 `json:"weightKg"`
	Value              *float64 `json:"value"`
	Hazardous          bool     `json:"hazardous"`
	HazardousCode      string   `json:"hazardousCode"`
}

type VehiclePayload struct {
	Plate        string `json:"plate"`
	PermitType   string `json:"permitType"`
	PermitNumber string `json:"permitNumber"`
}

type AgentPayload struct {
	Role          string `json:"role"`
	RFC           string `json:"rfc"`
	LegalName     string `json:"legalName"`
	LicenseNumber string `json:"licenseNumber"`
}

// Normalize trims and canonicalizes fields whose formatting carries no
// meaning. Document content itself is left alone; deciding whether a value
// is acceptable is the rule engine's job, not the transport's.
func (r *ValidateRequest) Normalize() {
	r.Issuer.RFC = normalizeRFC(r.Issuer.RFC)
	r.Issuer.Environment = strings.ToLower(strings.TrimSpace(r.Issuer.Environment))
	r.Recipient.RFC = normalizeRFC(r.Recipient.RFC)
	for i := range r.Locations {
		r.Locations[i].Type = strings.ToLower(strings.TrimSpace(r.Locations[i].Type))
		r.Locations[i].RFC = normalizeRFC(r.Locations[i].RFC)
	}
	for i := range r.Agents {
		r.Agents[i].Role = strings.ToLower(strings.TrimSpace(r.Agents[i].Role))
		r.Agents[i].RFC = normalizeRFC(r.Agents[i].RFC)
	}
}

// Validate rejects only requests the engine cannot meaningfully evaluate.
// Everything else, including structurally broken documents, flows through
// and comes back as findings.
func (r *ValidateRequest) Validate() error {
	if !waybill.FiscalEnvironment(r.Issuer.Environment).Valid() {
		return dErrors.New(dErrors.CodeValidation, "fiscalEnvironment must be sandbox or production")
	}
	for _, loc := range r.Locations {
		switch waybill.LocationType(loc.Type) {
		case waybill.LocationOrigin, waybill.LocationDestination, waybill.LocationWaypoint:
		default:
			return dErrors.New(dErrors.CodeValidation, "location type must be origin, destination or waypoint")
		}
	}
	for _, agent := range r.Agents {
		switch waybill.AgentRole(agent.Role) {
		case waybill.RoleOperator, waybill.RoleOwner, waybill.RoleTenant:
		default:
			return dErrors.New(dErrors.CodeValidation, "agent role must be operator, owner or tenant")
		}
	}
	return nil
}

// ToDocument maps the request onto the internal document model.
func (r *ValidateRequest) ToDocument() waybill.Document {
	doc := waybill.Document{
		Issuer: waybill.Issuer{
			RFC:         waybill.RFC(r.Issuer.RFC),
			LegalName:   r.Issuer.LegalName,
			TaxRegime:   r.Issuer.TaxRegime,
			Environment: waybill.FiscalEnvironment(r.Issuer.Environment),
		},
		Recipient: waybill.Recipient{
			RFC:       waybill.RFC(r.Recipient.RFC),
			LegalName: r.Recipient.LegalName,
		},
	}
	for _, loc := range r.Locations {
		l := waybill.Location{
			Type:       waybill.LocationType(loc.Type),
			RFC:        waybill.RFC(loc.RFC),
			LegalName:  loc.LegalName,
			Timestamp:  loc.Timestamp,
			DistanceKM: loc.DistanceKM,
		}
		if loc.Address != nil {
			l.Address = &waybill.Address{
				Street:       loc.Address.Street,
				PostalCode:   loc.Address.PostalCode,
				State:        loc.Address.State,
				Municipality: loc.Address.Municipality,
				Country:      loc.Address.Country,
			}
		}
		doc.Locations = append(doc.Locations, l)
	}
	for _, good := range r.Goods {
		doc.Goods = append(doc.Goods, waybill.Good{
			ClassificationCode: good.ClassificationCode,
			Description:        good.Description,
			Quantity:           good.Quantity,
			UnitCode:           good.UnitCode,
			WeightKG:           good.WeightKG,
			Value:              good.Value,
			Hazardous:          good.Hazardous,
			HazardousCode:      good.HazardousCode,
		})
	}
	if r.Vehicle != nil {
		doc.Vehicle = &waybill.Vehicle{
			Plate:        r.Vehicle.Plate,
			PermitType:   r.Vehicle.PermitType,
			PermitNumber: r.Vehicle.PermitNumber,
		}
	}
	for _, agent := range r.Agents {
		doc.Agents = append(doc.Agents, waybill.TransportAgent{
			Role:          waybill.AgentRole(agent.Role),
			RFC:           waybill.RFC(agent.RFC),
			LegalName:     agent.LegalName,
			LicenseNumber: agent.LicenseNumber,
		})
	}
	return doc
}

func normalizeRFC(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
