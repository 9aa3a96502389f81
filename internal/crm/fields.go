// Package crm provides the CRM synchronization bounded context: building
// lead field payloads and sending create/update requests to the Bitrix-style
// webhook API.
package crm

import (
	"kiosk_checkin_backend/platform/phone"
)

// defaultLeadTitle is used when a check-in arrives without a name.
const defaultLeadTitle = "Check-in kiosk lead"

// Fields is a CRM field map keyed by CRM field code.
type Fields map[string]interface{}

// PhoneValue is the CRM representation of a single phone entry.
type PhoneValue struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

// LeadFieldParams carries the raw contact data used to build a lead payload.
type LeadFieldParams struct {
	Name         string
	Phone        string
	AssignedByID string
	// CustomFields are merged last: caller-supplied entries override the
	// standard fields on key collision.
	CustomFields map[string]interface{}
}

// BuildLeadFields converts raw contact data into a CRM-ready field map.
// PHONE is present only when normalization yields a non-empty number, and
// ASSIGNED_BY_ID only when an assignee was provided.
func BuildLeadFields(params LeadFieldParams) Fields {
	fields := Fields{
		"TITLE": defaultLeadTitle,
		"NAME":  params.Name,
	}
	if params.Name != "" {
		fields["TITLE"] = params.Name
	}

	if normalized := phone.Normalize(params.Phone); normalized != "" {
		fields["PHONE"] = []PhoneValue{{Value: normalized, ValueType: "MOBILE"}}
	}

	if params.AssignedByID != "" {
		fields["ASSIGNED_BY_ID"] = params.AssignedByID
	}

	// Custom fields win on collision. Merge order is deliberate.
	for key, value := range params.CustomFields {
		fields[key] = value
	}

	return fields
}
