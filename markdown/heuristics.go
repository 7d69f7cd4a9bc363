package markdown

import (
	"strings"

	"github.com/loremaker/loregraph/model"
)

// HeuristicClassifier holds the keyword heuristics used during ingestion:
// location typing, challenge difficulty and role normalization. It is a
// named, swappable strategy so the rules can be replaced without touching
// the ingestion pipeline.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns the default keyword-based classifier
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// LocationType infers a location type from name keywords
func (h *HeuristicClassifier) LocationType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "station"):
		return "Space Station"
	case strings.Contains(lower, "planet"):
		return "Planet"
	case strings.Contains(lower, "ruins"):
		return "Ruins"
	case strings.Contains(lower, "facility"):
		return "Research Facility"
	case strings.Contains(lower, "megastructure"), strings.Contains(lower, "heart"):
		return "Megastructure"
	case strings.Contains(lower, "wilderness"), strings.Contains(lower, "expanse"):
		return "Wilderness"
	default:
		return "Location"
	}
}

// ChallengeDifficulty infers a difficulty rating from challenge keywords
func (h *HeuristicClassifier) ChallengeDifficulty(challenge string) string {
	lower := strings.ToLower(challenge)
	switch {
	case strings.Contains(lower, "interfacing"), strings.Contains(lower, "alien"):
		return "Very Hard"
	case strings.Contains(lower, "solving"), strings.Contains(lower, "battles"):
		return "Hard"
	default:
		return "Medium"
	}
}

// NormalizeRole maps a free-text character role onto the small role set
// used by the graph
func (h *HeuristicClassifier) NormalizeRole(role string) string {
	lower := strings.ToLower(role)
	switch {
	case strings.Contains(lower, "protagonist"), strings.Contains(lower, "main"), strings.Contains(role, "주인공"):
		return "Protagonist"
	case strings.Contains(lower, "antagonist"):
		return "Antagonist"
	case strings.Contains(lower, "guardian"):
		return "Guardian"
	default:
		return "Side Character"
	}
}

// Protagonist returns the first character normalized to the Protagonist
// role, or nil when none exists. The sole detected protagonist is assumed to
// participate in every event of the document.
func (h *HeuristicClassifier) Protagonist(characters []model.CharacterRecord) *model.CharacterRecord {
	for i := range characters {
		if h.NormalizeRole(characters[i].Role) == "Protagonist" {
			return &characters[i]
		}
	}
	return nil
}

// LocationRelation infers a spatial relation between two locations named in
// the same chapter: facilities and ruins sit on planets, stations orbit
// them. The returned edge points from `from` to `to`.
func (h *HeuristicClassifier) LocationRelation(loc1, loc2 string) (edgeType model.EdgeType, from, to string, ok bool) {
	l1 := strings.ToLower(loc1)
	l2 := strings.ToLower(loc2)

	isPlanet := func(s string) bool { return strings.Contains(s, "planet") }
	isSurface := func(s string) bool { return strings.Contains(s, "facility") || strings.Contains(s, "ruins") }
	isOrbital := func(s string) bool { return strings.Contains(s, "station") || strings.Contains(s, "orbital") }

	switch {
	case isPlanet(l1) && isSurface(l2):
		return model.EdgeLocatedOn, loc2, loc1, true
	case isPlanet(l2) && isSurface(l1):
		return model.EdgeLocatedOn, loc1, loc2, true
	case isOrbital(l1) && isPlanet(l2):
		return model.EdgeOrbits, loc1, loc2, true
	case isOrbital(l2) && isPlanet(l1):
		return model.EdgeOrbits, loc2, loc1, true
	default:
		return "", "", "", false
	}
}
