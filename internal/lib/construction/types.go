package construction

import (
	"strings"
	"time"
)

// ObstructionRecord is a raw row from the obstructions dataset ("entraves").
// Field names match the dataset's column names; coordinates arrive as strings
// and may be empty.
type ObstructionRecord struct {
	ID               string `json:"id"`
	BoroughID        string `json:"boroughid"`
	PermitID         string `json:"permit_permit_id"`
	Status           string `json:"currentstatus"`
	StartDate        string `json:"duration_start_date"`
	EndDate          string `json:"duration_end_date"`
	ReasonCategory   string `json:"reason_category"`
	Latitude         string `json:"latitude"`
	Longitude        string `json:"longitude"`
	OrganizationName string `json:"organizationname"`
}

// ImpactRecord is a raw row from the traffic/sidewalk impacts dataset.
// RequestID is a foreign key matching ObstructionRecord.ID.
type ImpactRecord struct {
	RequestID      string `json:"id_request"`
	SidewalkImpact string `json:"sidewalk_blockedtype"`
	TransitImpact  string `json:"stmimpact_blockedtype"`
	StreetName     string `json:"name"`
}

// EnrichedConstruction is the joined record: one per obstruction that has a
// matching impact and parseable coordinates. Coordinates are always present;
// records failing the join are dropped, never nulled.
type EnrichedConstruction struct {
	Latitude       float64 `json:"lat"`
	Longitude      float64 `json:"lon"`
	Reason         string  `json:"reason"`
	SidewalkImpact string  `json:"sidewalk_impact"`
	TransitImpact  string  `json:"transit_impact"`
	StreetName     string  `json:"street"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	PermitID       string  `json:"permit_id"`
	Status         string  `json:"status"`
	Organization   string  `json:"organization"`
}

// Dataset date layouts, longest first. The feed mixes full timestamps and
// bare calendar dates.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a dataset date string. Returns the zero time and false
// when the value is empty or unparseable.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartsAfter reports whether the construction's start date is strictly in
// the future relative to now. Unparseable dates report false, which keeps
// them out of the heads-up alert path.
func (c EnrichedConstruction) StartsAfter(now time.Time) bool {
	start, ok := ParseDate(c.StartDate)
	return ok && start.After(now)
}
