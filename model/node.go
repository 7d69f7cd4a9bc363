package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Label identifies the kind of a graph node
type Label string

const (
	LabelGame      Label = "Game"
	LabelChapter   Label = "Chapter"
	LabelCharacter Label = "Character"
	LabelLocation  Label = "Location"
	LabelLevel     Label = "Level"
	LabelEvent     Label = "Event"
	LabelGoal      Label = "Goal"
	LabelChallenge Label = "Challenge"
	LabelGroup     Label = "Group"
	LabelKeyItem   Label = "KeyItem"
)

// keySeparator joins natural key parts. It must not occur in entity names.
const keySeparator = "\x1f"

// NodeKey builds the natural key for a node from its key parts.
// Re-ingesting an entity with the same parts merges instead of duplicating.
func NodeKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// Node is a row in the nodes table, one vertex of the property graph
type Node struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	Label      Label     `json:"label"`
	Key        string    `json:"key"`
	GameTitle  string    `json:"game_title"`
	Name       string    `json:"name"`
	Number     *int      `json:"number,omitempty"`
	Properties Metadata  `json:"properties,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	// Inserted reports whether the last upsert created the node rather than
	// refreshing it. Used for incremental-update delta reporting.
	Inserted bool `json:"inserted,omitempty"`
}

// Edge is a row in the edges table, one relationship of the property graph
type Edge struct {
	ID         int64     `json:"id"`
	SourceID   int64     `json:"source_id"`
	TargetID   int64     `json:"target_id"`
	Type       EdgeType  `json:"edge_type"`
	Properties Metadata  `json:"properties,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Inserted   bool      `json:"inserted,omitempty"`
}

// Neighbor is one node of a one-hop neighborhood query, together with the
// connecting edge type and its direction ("out" from the queried node,
// "in" towards it).
type Neighbor struct {
	EdgeType  EdgeType `json:"edge_type"`
	Direction string   `json:"direction"`
	Node      Node     `json:"node"`
}

// EdgeType is the closed set of relationship types
type EdgeType string

const (
	EdgeHasChapter        EdgeType = "HAS_CHAPTER"
	EdgeFollowedBy        EdgeType = "FOLLOWED_BY"
	EdgeTakesPlaceAt      EdgeType = "TAKES_PLACE_AT"
	EdgeContainsEvent     EdgeType = "CONTAINS_EVENT"
	EdgeHasGoal           EdgeType = "HAS_GOAL"
	EdgePresentsChallenge EdgeType = "PRESENTS_CHALLENGE"
	EdgeHasCharacter      EdgeType = "HAS_CHARACTER"
	EdgeHasLevel          EdgeType = "HAS_LEVEL"
	EdgeParticipatesIn    EdgeType = "PARTICIPATES_IN"
	EdgeMemberOf          EdgeType = "MEMBER_OF"
	EdgeLocatedIn         EdgeType = "LOCATED_IN"
	EdgeLocatedOn         EdgeType = "LOCATED_ON"
	EdgeOrbits            EdgeType = "ORBITS"
)
