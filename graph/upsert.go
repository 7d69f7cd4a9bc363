package graph

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/markdown"
	"github.com/loremaker/loregraph/model"
)

// upsertNode writes one node and reports whether it was created
func (s *Store) upsertNode(label model.Label, key, gameTitle, name string, number *int, properties model.Metadata) (*model.Node, error) {
	node := &model.Node{
		Label:      label,
		Key:        key,
		GameTitle:  gameTitle,
		Name:       name,
		Number:     number,
		Properties: properties,
	}
	err := s.nodes.UpsertNode(node)
	if err != nil {
		return nil, helper.NewError("upsert "+string(label), err)
	}
	return node, nil
}

// linkEdge writes one edge and reports whether it was created
func (s *Store) linkEdge(sourceID, targetID int64, edgeType model.EdgeType) (bool, error) {
	edge := &model.Edge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     edgeType,
	}
	err := s.edges.InsertEdge(edge)
	if err != nil {
		return false, helper.NewError("insert "+string(edgeType)+" edge", err)
	}
	return edge.Inserted, nil
}

// UpsertGame writes the root game node
func (s *Store) UpsertGame(game model.GameRecord) (*model.Node, error) {
	properties := model.Metadata{}
	if game.Synopsis != "" {
		properties["synopsis"] = game.Synopsis
	}
	if game.WorldLore != "" {
		properties["world_lore"] = game.WorldLore
	}
	if game.Genre != "" {
		properties["genre"] = game.Genre
	}
	if game.TargetAudience != "" {
		properties["target_audience"] = game.TargetAudience
	}
	if game.Concept != "" {
		properties["concept"] = game.Concept
	}

	return s.upsertNode(model.LabelGame, game.Key(), game.Title, game.Title, nil, properties)
}

// UpsertChapters writes chapter nodes with their owned goals, events and
// challenges, links locations, and chains chapters with FOLLOWED_BY in
// ascending number order. The node key carries only the chapter number, so a
// duplicate number keeps the first occurrence; letting it through would
// overwrite the first chapter's title and chain the node onto itself.
// Returns the count of newly created chapters.
func (s *Store) UpsertChapters(gameTitle string, chapters []model.ChapterRecord) (int, error) {
	game, err := s.GetGame(gameTitle)
	if err != nil {
		return 0, err
	}
	if game == nil {
		return 0, helper.NewError("upsert chapters", errGameNotFound(gameTitle))
	}

	deduped := make([]model.ChapterRecord, 0, len(chapters))
	seen := map[int]bool{}
	for _, chapter := range chapters {
		if seen[chapter.Number] {
			s.log.Warn("Dropping chapter with duplicate number", slog.Int("number", chapter.Number), slog.String("title", chapter.Title))
			continue
		}
		seen[chapter.Number] = true
		deduped = append(deduped, chapter)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Number < deduped[j].Number
	})

	added := 0
	var previous *model.Node
	for _, chapter := range deduped {
		number := chapter.Number
		properties := model.Metadata{}
		if chapter.Description != "" {
			properties["description"] = chapter.Description
		}
		if chapter.Details != "" {
			properties["details"] = chapter.Details
		}

		node, err := s.upsertNode(model.LabelChapter, chapter.Key(gameTitle), gameTitle, chapter.Title, &number, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}

		if _, err := s.linkEdge(game.ID, node.ID, model.EdgeHasChapter); err != nil {
			return added, err
		}

		if err := s.upsertChapterChildren(gameTitle, chapter, node); err != nil {
			return added, err
		}

		if previous != nil {
			if _, err := s.linkEdge(previous.ID, node.ID, model.EdgeFollowedBy); err != nil {
				return added, err
			}
		}
		previous = node
	}

	return added, nil
}

// upsertChapterChildren writes the goal, location, event and challenge
// nodes of one chapter and their edges
func (s *Store) upsertChapterChildren(gameTitle string, chapter model.ChapterRecord, chapterNode *model.Node) error {
	chapterPart := strconv.Itoa(chapter.Number)

	for _, goal := range chapter.Goals {
		node, err := s.upsertNode(model.LabelGoal, model.NodeKey(gameTitle, chapterPart, goal), gameTitle, goal, nil, nil)
		if err != nil {
			return err
		}
		if _, err := s.linkEdge(chapterNode.ID, node.ID, model.EdgeHasGoal); err != nil {
			return err
		}
	}

	for _, location := range chapter.Locations {
		node, err := s.upsertNode(model.LabelLocation, model.NodeKey(gameTitle, location), gameTitle, location, nil, model.Metadata{
			"type": s.classifier.LocationType(location),
		})
		if err != nil {
			return err
		}
		if _, err := s.linkEdge(chapterNode.ID, node.ID, model.EdgeTakesPlaceAt); err != nil {
			return err
		}
	}

	for _, event := range chapter.Events {
		name := markdown.CleanEventName(event)
		node, err := s.upsertNode(model.LabelEvent, model.NodeKey(gameTitle, chapterPart, name), gameTitle, name, nil, model.Metadata{
			"description": event,
		})
		if err != nil {
			return err
		}
		if _, err := s.linkEdge(chapterNode.ID, node.ID, model.EdgeContainsEvent); err != nil {
			return err
		}
	}

	for _, challenge := range chapter.Challenges {
		node, err := s.upsertNode(model.LabelChallenge, model.NodeKey(gameTitle, chapterPart, challenge), gameTitle, challenge, nil, model.Metadata{
			"difficulty": s.classifier.ChallengeDifficulty(challenge),
		})
		if err != nil {
			return err
		}
		if _, err := s.linkEdge(chapterNode.ID, node.ID, model.EdgePresentsChallenge); err != nil {
			return err
		}
	}

	return nil
}

// UpsertCharacters writes character nodes linked to the game node.
// Returns the count of newly created characters.
func (s *Store) UpsertCharacters(gameTitle string, characters []model.CharacterRecord) (int, error) {
	game, err := s.GetGame(gameTitle)
	if err != nil {
		return 0, err
	}
	if game == nil {
		return 0, helper.NewError("upsert characters", errGameNotFound(gameTitle))
	}

	added := 0
	for _, character := range characters {
		properties := model.Metadata{
			"role": s.classifier.NormalizeRole(character.Role),
		}
		if character.Background != "" {
			properties["background"] = character.Background
		}
		if character.RelationToPlayer != "" {
			properties["relation_to_player"] = character.RelationToPlayer
		}

		node, err := s.upsertNode(model.LabelCharacter, character.Key(gameTitle), gameTitle, character.Name, nil, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}

		if _, err := s.linkEdge(game.ID, node.ID, model.EdgeHasCharacter); err != nil {
			return added, err
		}
	}

	return added, nil
}

// UpsertLocations writes standalone location nodes, e.g. from entity
// extraction. Returns the count of newly created locations.
func (s *Store) UpsertLocations(gameTitle string, locations []model.LocationRecord) (int, error) {
	added := 0
	for _, location := range locations {
		locationType := location.Type
		if locationType == "" {
			locationType = s.classifier.LocationType(location.Name)
		}
		properties := model.Metadata{"type": locationType}
		if len(location.InhabitedBy) > 0 {
			properties["inhabited_by"] = location.InhabitedBy
		}

		node, err := s.upsertNode(model.LabelLocation, location.Key(gameTitle), gameTitle, location.Name, nil, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}
	}
	return added, nil
}

// UpsertLevels writes level nodes linked to the game node
func (s *Store) UpsertLevels(gameTitle string, levels []model.LevelRecord) (int, error) {
	game, err := s.GetGame(gameTitle)
	if err != nil {
		return 0, err
	}
	if game == nil {
		return 0, helper.NewError("upsert levels", errGameNotFound(gameTitle))
	}

	added := 0
	for _, level := range levels {
		properties := model.Metadata{}
		if level.Theme != "" {
			properties["theme"] = level.Theme
		}
		if level.Atmosphere != "" {
			properties["atmosphere"] = level.Atmosphere
		}

		var number *int
		if level.Order > 0 {
			order := level.Order
			number = &order
		}

		node, err := s.upsertNode(model.LabelLevel, level.Key(gameTitle), gameTitle, level.Name, number, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}

		if _, err := s.linkEdge(game.ID, node.ID, model.EdgeHasLevel); err != nil {
			return added, err
		}
	}
	return added, nil
}

// UpsertGroups writes group nodes (factions and races) with MEMBER_OF edges
// from resolvable member characters and a LOCATED_IN edge when the habitat
// resolves to a known location. Unresolvable members are dropped with a
// warning. Returns the count of newly created groups.
func (s *Store) UpsertGroups(gameTitle string, groups []model.GroupRecord) (int, error) {
	added := 0
	for _, group := range groups {
		properties := model.Metadata{}
		if group.Habitat != "" {
			properties["habitat"] = group.Habitat
		}
		if group.Race {
			properties["race"] = true
		}

		node, err := s.upsertNode(model.LabelGroup, group.Key(gameTitle), gameTitle, group.Name, nil, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}

		for _, member := range group.Members {
			character, err := s.nodes.SelectNode(model.LabelCharacter, model.NodeKey(gameTitle, member))
			if err != nil {
				return added, err
			}
			if character == nil {
				s.log.Warn("Dropping group member without a character node", slog.String("group", group.Name), slog.String("member", member))
				continue
			}
			if _, err := s.linkEdge(character.ID, node.ID, model.EdgeMemberOf); err != nil {
				return added, err
			}
		}

		if group.Habitat != "" {
			habitat, err := s.nodes.SelectNode(model.LabelLocation, model.NodeKey(gameTitle, group.Habitat))
			if err != nil {
				return added, err
			}
			if habitat != nil {
				if _, err := s.linkEdge(node.ID, habitat.ID, model.EdgeLocatedIn); err != nil {
					return added, err
				}
			}
		}
	}
	return added, nil
}

// UpsertKeyItems writes key item nodes with a LOCATED_IN edge only when the
// estimated location resolves to an existing Location or Level node
func (s *Store) UpsertKeyItems(gameTitle string, items []model.KeyItemRecord) (int, error) {
	added := 0
	for _, item := range items {
		properties := model.Metadata{}
		if item.Description != "" {
			properties["description"] = item.Description
		}
		if item.EstimatedLocation != "" {
			properties["estimated_location"] = item.EstimatedLocation
		}

		node, err := s.upsertNode(model.LabelKeyItem, item.Key(gameTitle), gameTitle, item.Name, nil, properties)
		if err != nil {
			return added, err
		}
		if node.Inserted {
			added++
		}

		if item.EstimatedLocation == "" {
			continue
		}
		for _, label := range []model.Label{model.LabelLocation, model.LabelLevel} {
			location, err := s.nodes.SelectNode(label, model.NodeKey(gameTitle, item.EstimatedLocation))
			if err != nil {
				return added, err
			}
			if location != nil {
				if _, err := s.linkEdge(node.ID, location.ID, model.EdgeLocatedIn); err != nil {
					return added, err
				}
				break
			}
		}
	}
	return added, nil
}

// LinkRelationships writes character relationship edges. Both endpoints
// must already exist as character nodes; dangling references are dropped
// with a warning, never auto-created. Returns the count of newly created
// edges.
func (s *Store) LinkRelationships(gameTitle string, relationships map[string]map[string]string) (int, error) {
	added := 0

	sources := make([]string, 0, len(relationships))
	for source := range relationships {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		sourceNode, err := s.nodes.SelectNode(model.LabelCharacter, model.NodeKey(gameTitle, source))
		if err != nil {
			return added, err
		}
		if sourceNode == nil {
			s.log.Warn("Dropping relationships of unknown character", slog.String("character", source))
			continue
		}

		targets := make([]string, 0, len(relationships[source]))
		for target := range relationships[source] {
			targets = append(targets, target)
		}
		sort.Strings(targets)

		for _, target := range targets {
			targetNode, err := s.nodes.SelectNode(model.LabelCharacter, model.NodeKey(gameTitle, target))
			if err != nil {
				return added, err
			}
			if targetNode == nil {
				s.log.Warn("Dropping relationship to unknown character", slog.String("source", source), slog.String("target", target))
				continue
			}

			inserted, err := s.linkEdge(sourceNode.ID, targetNode.ID, model.MapRelation(relationships[source][target]))
			if err != nil {
				return added, err
			}
			if inserted {
				added++
			}
		}
	}

	return added, nil
}

// LinkParticipation links one character to every event of the game with
// PARTICIPATES_IN. Used for the protagonist, who is assumed present in all
// events of the document.
func (s *Store) LinkParticipation(gameTitle, characterName string) (int, error) {
	character, err := s.nodes.SelectNode(model.LabelCharacter, model.NodeKey(gameTitle, characterName))
	if err != nil {
		return 0, err
	}
	if character == nil {
		s.log.Warn("Skipping participation for unknown character", slog.String("character", characterName))
		return 0, nil
	}

	events, err := s.nodes.SelectNodesByLabel(gameTitle, model.LabelEvent)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, event := range events {
		inserted, err := s.linkEdge(character.ID, event.ID, model.EdgeParticipatesIn)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// LinkLocationPair writes a spatial edge between two locations when both
// exist. Unresolvable endpoints drop the edge silently; location pairs are
// heuristic, not extracted facts.
func (s *Store) LinkLocationPair(gameTitle string, edgeType model.EdgeType, fromName, toName string) (bool, error) {
	from, err := s.nodes.SelectNode(model.LabelLocation, model.NodeKey(gameTitle, fromName))
	if err != nil {
		return false, err
	}
	to, err := s.nodes.SelectNode(model.LabelLocation, model.NodeKey(gameTitle, toName))
	if err != nil {
		return false, err
	}
	if from == nil || to == nil {
		return false, nil
	}

	return s.linkEdge(from.ID, to.ID, edgeType)
}
