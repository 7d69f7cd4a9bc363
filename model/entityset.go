package model

// EntitySet is the JSON shape the entity/relationship inferencer asks the
// LLM to produce. Relationships map a character name to its relations with
// other characters, expressed as natural-language relation strings
// (신뢰, 우호적, 중립, 적대적, 증오 or English equivalents).
type EntitySet struct {
	Characters    []string                     `json:"characters"`
	Locations     []string                     `json:"locations"`
	Races         []string                     `json:"races"`
	Relationships map[string]map[string]string `json:"relationships"`
}

// EmptyEntitySet is the documented fallback when the LLM response cannot be
// parsed: extraction failures degrade ingestion, they never crash it.
func EmptyEntitySet() EntitySet {
	return EntitySet{
		Characters:    []string{},
		Locations:     []string{},
		Races:         []string{},
		Relationships: map[string]map[string]string{},
	}
}

// IsEmpty reports whether the set carries no extracted entities at all
func (e EntitySet) IsEmpty() bool {
	return len(e.Characters) == 0 && len(e.Locations) == 0 && len(e.Races) == 0 && len(e.Relationships) == 0
}

// GameMetadata is the richer metadata shape inferred from a full document
// when pattern extraction alone is not enough
type GameMetadata struct {
	Title                  string                       `json:"title"`
	Overview               string                       `json:"overview,omitempty"`
	Genre                  string                       `json:"genre,omitempty"`
	Levels                 []LevelRecord                `json:"levels,omitempty"`
	Characters             []CharacterRecord            `json:"characters,omitempty"`
	CharacterRelationships map[string]map[string]string `json:"character_relationships,omitempty"`
	ImplicitGroups         []GroupRecord                `json:"implicit_groups,omitempty"`
	KeyItems               []KeyItemRecord              `json:"key_items,omitempty"`
}

// EmptyGameMetadata is the parse-failure fallback for metadata inference
func EmptyGameMetadata() GameMetadata {
	return GameMetadata{
		CharacterRelationships: map[string]map[string]string{},
	}
}
