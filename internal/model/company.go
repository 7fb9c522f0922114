// Package model defines the core data types for the sponsorship pipeline.
package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// Status is the outreach pipeline stage for a company.
type Status string

// Pipeline stages, in progression order.
const (
	StatusResearch    Status = "research"
	StatusContacted   Status = "contacted"
	StatusResponded   Status = "responded"
	StatusNegotiating Status = "negotiating"
	StatusCommitted   Status = "committed"
	StatusClosed      Status = "closed"
	StatusDeclined    Status = "declined"
)

// statusOrder maps each stage to its position in the pipeline. Declined is a
// terminal branch rather than a forward stage.
var statusOrder = map[Status]int{
	StatusResearch:    0,
	StatusContacted:   1,
	StatusResponded:   2,
	StatusNegotiating: 3,
	StatusCommitted:   4,
	StatusClosed:      5,
	StatusDeclined:    6,
}

// Valid reports whether s is a known pipeline stage.
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Advance returns the later of the two stages. Pipeline status is monotonic:
// recording a touch never moves a company backwards.
func (s Status) Advance(to Status) Status {
	if !to.Valid() {
		return s
	}
	if statusOrder[to] > statusOrder[s] {
		return to
	}
	return s
}

// DecisionMaker is a contact person at a candidate sponsor company.
type DecisionMaker struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// AlumniConnection records a team member's personal connection into a company.
type AlumniConnection struct {
	TeamMemberName  string `json:"team_member_name"`
	TeamMemberEmail string `json:"team_member_email,omitempty"`
	ConnectionType  string `json:"connection_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Company is a candidate sponsor record. Name is the natural (fuzzy) key for
// deduplication and is not unique at the store level.
type Company struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Status Status `json:"status" db:"status"`

	// Enrichment fields, each independently nullable. Merge policy: keep
	// existing value if present, else take incoming.
	Website       string `json:"website,omitempty" db:"website"`
	Industry      string `json:"industry,omitempty" db:"industry"`
	Size          string `json:"size,omitempty" db:"size"`
	MarketCap     int64  `json:"market_cap,omitempty" db:"market_cap"`
	FundingRaised int64  `json:"funding_raised,omitempty" db:"funding_raised"`
	Description   string `json:"description,omitempty" db:"description"`
	Notes         string `json:"notes,omitempty" db:"notes"`

	DecisionMakers    []DecisionMaker    `json:"decision_makers,omitempty" db:"decision_makers"`
	AlumniConnections []AlumniConnection `json:"alumni_connections,omitempty" db:"alumni_connections"`
	PastSponsorYears  []string           `json:"past_sponsor_years,omitempty" db:"past_sponsor_years"`

	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// reservedFieldKeys are record metadata, never merged between duplicates.
var reservedFieldKeys = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"created_by": true,
}

// ReservedFieldKey reports whether key is record metadata excluded from merging.
func ReservedFieldKey(key string) bool {
	return reservedFieldKeys[key]
}

// FieldMap returns the company's fields as a generic key→value map, keyed by
// JSON field name. Zero-valued fields are omitted.
func (c Company) FieldMap() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal company")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal company fields")
	}
	return m, nil
}

// ApplyFieldMap overwrites the company's fields from a generic field map.
// Reserved metadata keys in the map are ignored.
func (c *Company) ApplyFieldMap(fields map[string]any) error {
	filtered := make(map[string]any, len(fields))
	for k, v := range fields {
		if ReservedFieldKey(k) {
			continue
		}
		filtered[k] = v
	}
	raw, err := json.Marshal(filtered)
	if err != nil {
		return eris.Wrap(err, "model: marshal field map")
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return eris.Wrap(err, "model: apply field map")
	}
	return nil
}
