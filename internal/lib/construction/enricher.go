package construction

import (
	"strconv"
	"strings"
)

// Enrich joins obstruction records with their impact records into the
// enriched stream used by the rest of the pipeline.
//
// The join is an inner join with a coordinate-presence guard: a result is
// produced only when a matching impact exists and both coordinates parse as
// floats. Records failing either condition are silently excluded. Duplicate
// impact request IDs resolve last-write-wins.
//
// Pure function: no I/O, inputs are not mutated, output order follows the
// obstruction input but callers must not rely on it.
func Enrich(obstructions []ObstructionRecord, impacts []ImpactRecord) []EnrichedConstruction {
	impactByRequest := make(map[string]ImpactRecord, len(impacts))
	for _, impact := range impacts {
		if impact.RequestID == "" {
			continue
		}
		impactByRequest[impact.RequestID] = impact
	}

	enriched := make([]EnrichedConstruction, 0, len(obstructions))
	for _, obstruction := range obstructions {
		impact, ok := impactByRequest[obstruction.ID]
		if !ok {
			continue
		}

		lat, ok := parseCoordinate(obstruction.Latitude)
		if !ok {
			continue
		}
		lon, ok := parseCoordinate(obstruction.Longitude)
		if !ok {
			continue
		}

		enriched = append(enriched, EnrichedConstruction{
			Latitude:       lat,
			Longitude:      lon,
			Reason:         obstruction.ReasonCategory,
			SidewalkImpact: impact.SidewalkImpact,
			TransitImpact:  impact.TransitImpact,
			StreetName:     impact.StreetName,
			StartDate:      obstruction.StartDate,
			EndDate:        obstruction.EndDate,
			PermitID:       obstruction.PermitID,
			Status:         obstruction.Status,
			Organization:   obstruction.OrganizationName,
		})
	}

	return enriched
}

// parseCoordinate treats empty and unparseable values as absent.
func parseCoordinate(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
