// Package graph is the write and query service over the property graph.
// It owns natural-key construction for every node label and the delta
// reporting used by incremental updates.
package graph

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/loremaker/loregraph/database"
	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/markdown"
	"github.com/loremaker/loregraph/model"
)

// Store composes the node and edge handlers into graph-level operations
type Store struct {
	nodes      database.NodesDBHandlerFunctions
	edges      database.EdgesDBHandlerFunctions
	classifier *markdown.HeuristicClassifier
	log        *slog.Logger
}

// NewStore creates a graph store over the given handlers
func NewStore(nodes database.NodesDBHandlerFunctions, edges database.EdgesDBHandlerFunctions, classifier *markdown.HeuristicClassifier, logger *slog.Logger) *Store {
	return &Store{
		nodes:      nodes,
		edges:      edges,
		classifier: classifier,
		log:        logger,
	}
}

func errGameNotFound(title string) error {
	return fmt.Errorf("game %q not found, upsert the game node first", title)
}

// ClearAll deletes every node and, through cascade, every edge
func (s *Store) ClearAll() error {
	err := s.nodes.ClearNodes()
	if err != nil {
		return helper.NewError("clear graph", err)
	}
	s.log.Info("Cleared graph")
	return nil
}

// GetGame retrieves the game node, nil when absent
func (s *Store) GetGame(gameTitle string) (*model.Node, error) {
	return s.nodes.SelectNode(model.LabelGame, model.NodeKey(gameTitle))
}

// GetChapter retrieves a chapter node by game and number, nil when absent
func (s *Store) GetChapter(gameTitle string, number int) (*model.Node, error) {
	return s.nodes.SelectNode(model.LabelChapter, model.NodeKey(gameTitle, strconv.Itoa(number)))
}

// GetChapters retrieves all chapter nodes of a game ordered by number
func (s *Store) GetChapters(gameTitle string) ([]*model.Node, error) {
	return s.nodes.SelectNodesByLabel(gameTitle, model.LabelChapter)
}

// GetChapterNeighbors retrieves the one-hop neighborhood of a chapter.
// A missing chapter yields an empty neighborhood, not an error.
func (s *Store) GetChapterNeighbors(gameTitle string, number int) ([]*model.Neighbor, error) {
	chapter, err := s.GetChapter(gameTitle, number)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, nil
	}
	return s.nodes.SelectNeighbors(chapter.ID)
}

// GetAdjacentChapters resolves the FOLLOWED_BY chain around a chapter.
// Either side is nil at the ends of the chain or when the chapter is missing.
func (s *Store) GetAdjacentChapters(gameTitle string, number int) (previous, next *model.Node, err error) {
	neighbors, err := s.GetChapterNeighbors(gameTitle, number)
	if err != nil {
		return nil, nil, err
	}

	for _, neighbor := range neighbors {
		if neighbor.EdgeType != model.EdgeFollowedBy {
			continue
		}
		node := neighbor.Node
		if neighbor.Direction == "in" {
			previous = &node
		} else {
			next = &node
		}
	}
	return previous, next, nil
}

// GetCharacters retrieves all character nodes of a game
func (s *Store) GetCharacters(gameTitle string) ([]*model.Node, error) {
	return s.nodes.SelectNodesByLabel(gameTitle, model.LabelCharacter)
}

// GetCharacterRelationships retrieves all character-to-character edges of a
// game resolved to names
func (s *Store) GetCharacterRelationships(gameTitle string) ([]*model.CharacterRelation, error) {
	return s.edges.SelectCharacterEdges(gameTitle)
}

// GetLocations retrieves all location nodes of a game
func (s *Store) GetLocations(gameTitle string) ([]*model.Node, error) {
	return s.nodes.SelectNodesByLabel(gameTitle, model.LabelLocation)
}

// GetNodesByLabel retrieves all nodes of one label within a game
func (s *Store) GetNodesByLabel(gameTitle string, label model.Label) ([]*model.Node, error) {
	return s.nodes.SelectNodesByLabel(gameTitle, label)
}

// findLabels is the resolution order for free-text entity names
var findLabels = []model.Label{
	model.LabelCharacter,
	model.LabelLocation,
	model.LabelChapter,
	model.LabelGroup,
	model.LabelKeyItem,
	model.LabelLevel,
}

// FindNodeByName resolves a free-text name to a node of the game, checking
// labels in a fixed order. Nil when nothing matches.
func (s *Store) FindNodeByName(gameTitle, name string) (*model.Node, error) {
	for _, label := range findLabels {
		node, err := s.nodes.SelectNode(label, model.NodeKey(gameTitle, name))
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
	}
	return nil, nil
}

// GetNeighbors retrieves the one-hop neighborhood of a node
func (s *Store) GetNeighbors(nodeID int64) ([]*model.Neighbor, error) {
	return s.nodes.SelectNeighbors(nodeID)
}

// GameOverview is the summary shape of GetRelatedElements when neither a
// label nor a chapter narrows the query
type GameOverview struct {
	Game          *model.Node                `json:"game"`
	Chapters      []*model.Node              `json:"chapters"`
	Characters    []*model.Node              `json:"characters"`
	Locations     []*model.Node              `json:"locations"`
	Relationships []*model.CharacterRelation `json:"relationships"`
}

// RelatedElements is the result of GetRelatedElements; exactly one field is
// set depending on the query shape
type RelatedElements struct {
	Nodes     []*model.Node     `json:"nodes,omitempty"`
	Neighbors []*model.Neighbor `json:"neighbors,omitempty"`
	Overview  *GameOverview     `json:"overview,omitempty"`
}

// GetRelatedElements retrieves graph context in one of three shapes: all
// nodes of one label, the neighborhood of one chapter, or a game overview
// when neither narrows the query
func (s *Store) GetRelatedElements(gameTitle string, label model.Label, chapterNumber int) (*RelatedElements, error) {
	if label != "" {
		nodes, err := s.GetNodesByLabel(gameTitle, label)
		if err != nil {
			return nil, err
		}
		return &RelatedElements{Nodes: nodes}, nil
	}

	if chapterNumber > 0 {
		neighbors, err := s.GetChapterNeighbors(gameTitle, chapterNumber)
		if err != nil {
			return nil, err
		}
		return &RelatedElements{Neighbors: neighbors}, nil
	}

	overview, err := s.GetGameOverview(gameTitle)
	if err != nil {
		return nil, err
	}
	return &RelatedElements{Overview: overview}, nil
}

// GetGameOverview collects the game node with its chapters, characters,
// locations and character relationships
func (s *Store) GetGameOverview(gameTitle string) (*GameOverview, error) {
	game, err := s.GetGame(gameTitle)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, errGameNotFound(gameTitle)
	}

	chapters, err := s.GetChapters(gameTitle)
	if err != nil {
		return nil, err
	}
	characters, err := s.GetCharacters(gameTitle)
	if err != nil {
		return nil, err
	}
	locations, err := s.GetLocations(gameTitle)
	if err != nil {
		return nil, err
	}
	relationships, err := s.GetCharacterRelationships(gameTitle)
	if err != nil {
		return nil, err
	}

	return &GameOverview{
		Game:          game,
		Chapters:      chapters,
		Characters:    characters,
		Locations:     locations,
		Relationships: relationships,
	}, nil
}

// UpdateChapter overwrites the outline and details of an existing chapter.
// A missing chapter yields (false, nil).
func (s *Store) UpdateChapter(gameTitle string, number int, outline, details string) (bool, error) {
	chapter, err := s.GetChapter(gameTitle, number)
	if err != nil {
		return false, err
	}
	if chapter == nil {
		return false, nil
	}

	if chapter.Properties == nil {
		chapter.Properties = model.Metadata{}
	}
	chapter.Properties["description"] = outline
	chapter.Properties["details"] = details

	err = s.nodes.UpsertNode(chapter)
	if err != nil {
		return false, helper.NewError("update chapter", err)
	}

	s.log.Info("Updated chapter", slog.String("game", gameTitle), slog.Int("number", number))
	return true, nil
}

// DeleteChapter removes a chapter together with its owned Event, Goal and
// Challenge nodes. Shared characters and locations survive. A missing
// chapter yields (false, nil).
func (s *Store) DeleteChapter(gameTitle string, number int) (bool, error) {
	chapter, err := s.GetChapter(gameTitle, number)
	if err != nil {
		return false, err
	}
	if chapter == nil {
		return false, nil
	}

	deleted, err := s.nodes.DeleteChapterChildren(chapter.ID)
	if err != nil {
		return false, helper.NewError("delete chapter children", err)
	}

	err = s.nodes.DeleteNode(chapter.ID)
	if err != nil {
		return false, helper.NewError("delete chapter", err)
	}

	s.log.Info("Deleted chapter", slog.String("game", gameTitle), slog.Int("number", number), slog.Int("ownedNodesDeleted", deleted))
	return true, nil
}

// CountNodes returns the total node count
func (s *Store) CountNodes() (int64, error) {
	return s.nodes.CountNodes()
}

// CountEdges returns the total edge count
func (s *Store) CountEdges() (int64, error) {
	return s.edges.CountEdges()
}
