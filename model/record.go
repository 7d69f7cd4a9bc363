package model

import "strconv"

// GameRecord is the root entity of a project graph, keyed by title
type GameRecord struct {
	Title          string `json:"title"`
	Synopsis       string `json:"synopsis,omitempty"`
	WorldLore      string `json:"world_lore,omitempty"`
	Genre          string `json:"genre,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	Concept        string `json:"concept,omitempty"`
}

// Key returns the game's natural key
func (g GameRecord) Key() string {
	return NodeKey(g.Title)
}

// ChapterRecord is one chapter extracted from a design document.
// Goals, Locations, Events and Challenges come from the chapter overview;
// Details carries the free-text elaboration from the details section.
type ChapterRecord struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Details     string   `json:"details,omitempty"`
	Goals       []string `json:"goals,omitempty"`
	Locations   []string `json:"locations,omitempty"`
	Events      []string `json:"events,omitempty"`
	Challenges  []string `json:"challenges,omitempty"`
}

// Key returns the chapter's natural key within a game. The key carries only
// the number, so two chapters sharing a number are the same node; duplicate
// numbers are a data error and the first-parsed chapter wins.
func (c ChapterRecord) Key(game string) string {
	return NodeKey(game, strconv.Itoa(c.Number))
}

// CharacterRecord is one character, keyed by name within a game
type CharacterRecord struct {
	Name             string `json:"name"`
	Role             string `json:"role,omitempty"`
	Background       string `json:"background,omitempty"`
	RelationToPlayer string `json:"relation_to_player,omitempty"`
}

// Key returns the character's natural key within a game
func (c CharacterRecord) Key(game string) string {
	return NodeKey(game, c.Name)
}

// LocationRecord is a named place, keyed by name within a game
type LocationRecord struct {
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	InhabitedBy []string `json:"inhabited_by,omitempty"`
}

// Key returns the location's natural key within a game
func (l LocationRecord) Key(game string) string {
	return NodeKey(game, l.Name)
}

// LevelRecord is a playable level or stage, keyed by name within a game
type LevelRecord struct {
	Name       string `json:"name"`
	Order      int    `json:"order,omitempty"`
	Theme      string `json:"theme,omitempty"`
	Atmosphere string `json:"atmosphere,omitempty"`
}

// Key returns the level's natural key within a game
func (l LevelRecord) Key(game string) string {
	return NodeKey(game, l.Name)
}

// EventRecord is attached to exactly one chapter
type EventRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Key returns the event's natural key within a chapter
func (e EventRecord) Key(game string, chapter int) string {
	return NodeKey(game, strconv.Itoa(chapter), e.Name)
}

// GroupRecord is an implicit grouping of characters, e.g. a faction or race
type GroupRecord struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
	Habitat string   `json:"habitat,omitempty"`
	Race    bool     `json:"race,omitempty"`
}

// Key returns the group's natural key within a game
func (g GroupRecord) Key(game string) string {
	return NodeKey(game, g.Name)
}

// KeyItemRecord is a notable item, optionally resolving to a known location
type KeyItemRecord struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	EstimatedLocation string `json:"estimated_location,omitempty"`
}

// Key returns the key item's natural key within a game
func (k KeyItemRecord) Key(game string) string {
	return NodeKey(game, k.Name)
}
