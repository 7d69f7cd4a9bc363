package model

import "strings"

// Character relationship edge types. Natural-language relation strings from
// extracted documents map onto this closed set; anything unmapped becomes
// the generic RelationRelatedTo.
const (
	RelationTrusts       EdgeType = "TRUSTS"
	RelationFriendlyWith EdgeType = "FRIENDLY_WITH"
	RelationNeutralWith  EdgeType = "NEUTRAL_WITH"
	RelationHostileWith  EdgeType = "HOSTILE_WITH"
	RelationHates        EdgeType = "HATES"
	RelationRelatedTo    EdgeType = "RELATED_TO"
)

var relationTypes = map[string]EdgeType{
	"신뢰":      RelationTrusts,
	"우호적":     RelationFriendlyWith,
	"중립":      RelationNeutralWith,
	"적대적":     RelationHostileWith,
	"증오":      RelationHates,
	"trust":   RelationTrusts,
	"trusts":  RelationTrusts,
	"friendly": RelationFriendlyWith,
	"neutral": RelationNeutralWith,
	"hostile": RelationHostileWith,
	"hatred":  RelationHates,
	"hate":    RelationHates,
}

// MapRelation maps a natural-language relation string to its edge type.
// Unmapped strings fall back to RelationRelatedTo, never an error.
func MapRelation(relation string) EdgeType {
	if mapped, ok := relationTypes[strings.ToLower(strings.TrimSpace(relation))]; ok {
		return mapped
	}
	return RelationRelatedTo
}

var relationPhrases = map[EdgeType]string{
	RelationTrusts:       "신뢰",
	RelationFriendlyWith: "우호적",
	RelationNeutralWith:  "중립",
	RelationHostileWith:  "적대적",
	RelationHates:        "증오",
}

// RelationPhrase renders an edge type as the human-readable phrase used in
// LLM-facing context blocks. Unknown types render as "관련됨".
func RelationPhrase(edgeType EdgeType) string {
	if phrase, ok := relationPhrases[edgeType]; ok {
		return phrase
	}
	return "관련됨"
}

// CharacterRelation is one character-to-character edge resolved to names
type CharacterRelation struct {
	Source string   `json:"source"`
	Type   EdgeType `json:"type"`
	Target string   `json:"target"`
}

// IsRelation reports whether the edge type is a character relationship
func IsRelation(edgeType EdgeType) bool {
	switch edgeType {
	case RelationTrusts, RelationFriendlyWith, RelationNeutralWith, RelationHostileWith, RelationHates, RelationRelatedTo:
		return true
	}
	return false
}
