package construction

import "strings"

// ImpactCategory is the discrete impact classification used for icon
// selection, legend grouping and alert text.
type ImpactCategory string

const (
	ImpactNone         ImpactCategory = "NONE"
	ImpactSidewalkOnly ImpactCategory = "SIDEWALK_ONLY"
	ImpactTransitOnly  ImpactCategory = "TRANSIT_ONLY"
	ImpactBoth         ImpactCategory = "BOTH"
)

// Sentinel values from the impacts dataset. Comparison is exact after
// trimming surrounding whitespace; anything else falls through to NONE.
const (
	sidewalkBlocked = "Barré"
	transitMoved    = "Déplacer"
	transitRemoved  = "Retirer"
)

// Classify derives the impact category for an enriched construction. Total
// over all inputs: every record maps to exactly one of the four categories.
func Classify(c EnrichedConstruction) ImpactCategory {
	sidewalk := strings.TrimSpace(c.SidewalkImpact) == sidewalkBlocked

	transitValue := strings.TrimSpace(c.TransitImpact)
	transit := transitValue == transitMoved || transitValue == transitRemoved

	switch {
	case sidewalk && transit:
		return ImpactBoth
	case sidewalk:
		return ImpactSidewalkOnly
	case transit:
		return ImpactTransitOnly
	default:
		return ImpactNone
	}
}
