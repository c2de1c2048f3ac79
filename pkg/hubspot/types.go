package hubspot

import "fmt"

// SearchRequest is the body of a CRM v3 object search. Filter groups are
// OR-ed together; filters within a group are AND-ed.
type SearchRequest struct {
	FilterGroups []FilterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
}

// FilterGroup holds AND-ed property filters.
type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

// Filter matches a single object property.
type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

// EqFilter builds a single-property equality filter group.
func EqFilter(property, value string) FilterGroup {
	return FilterGroup{Filters: []Filter{{
		PropertyName: property,
		Operator:     "EQ",
		Value:        value,
	}}}
}

// SearchResponse is the CRM v3 search result envelope.
type SearchResponse struct {
	Total   int      `json:"total"`
	Results []Object `json:"results"`
}

// Object is a CRM object reference with its requested properties.
type Object struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Association links a new object to an existing one at create time.
type Association struct {
	To    AssociationTarget `json:"to"`
	Types []AssociationType `json:"types"`
}

// AssociationTarget identifies the object being associated to.
type AssociationTarget struct {
	ID string `json:"id"`
}

// AssociationType identifies the association schema.
type AssociationType struct {
	AssociationCategory string `json:"associationCategory"`
	AssociationTypeID   int    `json:"associationTypeId"`
}

// ContactAssociation builds a user-defined ticket-to-contact association.
func ContactAssociation(contactID string, typeID int) Association {
	return Association{
		To: AssociationTarget{ID: contactID},
		Types: []AssociationType{{
			AssociationCategory: "USER_DEFINED",
			AssociationTypeID:   typeID,
		}},
	}
}

// APIError is a non-2xx HubSpot response. The raw body is preserved so
// callers can recover provider-specific details (e.g. the existing object id
// reported on a 409 conflict).
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot: status %d: %s", e.StatusCode, e.Body)
}
