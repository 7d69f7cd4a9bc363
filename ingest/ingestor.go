// Package ingest builds the property graph from markdown design documents.
// Pattern extraction runs first, LLM inference fills the gaps, and every
// write goes through the graph store's idempotent upserts, so re-ingesting
// the same document is a no-op.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/loremaker/loregraph/database"
	"github.com/loremaker/loregraph/markdown"
	"github.com/loremaker/loregraph/model"
)

// ErrNoChapters is returned when a document carries no recognizable
// chapter structure. Nothing is written in that case.
var ErrNoChapters = errors.New("no chapter data found")

// GraphStore is the graph surface ingestion writes through
type GraphStore interface {
	ClearAll() error
	UpsertGame(game model.GameRecord) (*model.Node, error)
	UpsertChapters(gameTitle string, chapters []model.ChapterRecord) (int, error)
	UpsertCharacters(gameTitle string, characters []model.CharacterRecord) (int, error)
	UpsertLocations(gameTitle string, locations []model.LocationRecord) (int, error)
	UpsertGroups(gameTitle string, groups []model.GroupRecord) (int, error)
	UpsertKeyItems(gameTitle string, items []model.KeyItemRecord) (int, error)
	UpsertLevels(gameTitle string, levels []model.LevelRecord) (int, error)
	LinkRelationships(gameTitle string, relationships map[string]map[string]string) (int, error)
	LinkParticipation(gameTitle, characterName string) (int, error)
	LinkLocationPair(gameTitle string, edgeType model.EdgeType, fromName, toName string) (bool, error)
}

// Inferencer is the LLM surface ingestion falls back to when pattern
// extraction is not enough
type Inferencer interface {
	ExtractEntities(ctx context.Context, doc string) (model.EntitySet, error)
	InferMetadata(ctx context.Context, doc string) (model.GameMetadata, error)
}

// Result reports what one ingestion added to the graph
type Result struct {
	GameTitle          string `json:"game_title"`
	AddedChapters      int    `json:"added_chapters"`
	AddedCharacters    int    `json:"added_characters"`
	AddedLocations     int    `json:"added_locations"`
	AddedGroups        int    `json:"added_groups"`
	AddedKeyItems      int    `json:"added_key_items"`
	AddedLevels        int    `json:"added_levels"`
	AddedRelationships int    `json:"added_relationships"`
	NewDocument        bool   `json:"new_document"`
}

// Ingestor turns design documents into graph writes
type Ingestor struct {
	extractor  *markdown.Extractor
	classifier *markdown.HeuristicClassifier
	inferencer Inferencer
	store      GraphStore
	documents  database.DocumentsDBHandlerFunctions
	log        *slog.Logger
}

// NewIngestor creates an ingestor over the given store and inferencer
func NewIngestor(inferencer Inferencer, store GraphStore, documents database.DocumentsDBHandlerFunctions, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		extractor:  markdown.NewExtractor(logger),
		classifier: markdown.NewHeuristicClassifier(),
		inferencer: inferencer,
		store:      store,
		documents:  documents,
		log:        logger,
	}
}

// IngestFile reads a markdown file and ingests it
func (i *Ingestor) IngestFile(ctx context.Context, filePath string, fullRebuild bool) (*Result, error) {
	doc, err := model.NewDocumentFromFile(filePath, nil)
	if err != nil {
		return nil, err
	}
	return i.ingest(ctx, doc, fullRebuild)
}

// IngestDocument ingests raw markdown content. With fullRebuild the graph is
// cleared first; otherwise the document is merged into the existing graph
// and the result reports only what is new.
func (i *Ingestor) IngestDocument(ctx context.Context, content string, fullRebuild bool) (*Result, error) {
	doc := &model.Document{
		Title:   i.extractor.GameTitle(content),
		Content: content,
	}
	return i.ingest(ctx, doc, fullRebuild)
}

// ingest is the single write path. Writes are monotonic: a failure partway
// leaves the already-written part of the graph in place, there is no
// rollback.
func (i *Ingestor) ingest(ctx context.Context, doc *model.Document, fullRebuild bool) (*Result, error) {
	content := doc.Content
	gameTitle := i.extractor.GameTitle(content)

	chapters := i.extractor.Chapters(content)
	if len(chapters) == 0 {
		return nil, ErrNoChapters
	}

	characters := i.extractor.Characters(content)

	// Pattern extraction missed the characters, let the model read the
	// whole document
	var metadata model.GameMetadata
	metadataInferred := false
	if len(characters) == 0 {
		i.log.Warn("No characters matched by pattern, falling back to metadata inference", slog.String("game", gameTitle))
		inferred, err := i.inferencer.InferMetadata(ctx, content)
		if err != nil {
			return nil, err
		}
		metadata = inferred
		metadataInferred = true
		characters = metadata.Characters
	}
	if len(characters) == 0 {
		i.log.Warn("No characters found at all, creating a generic protagonist", slog.String("game", gameTitle))
		characters = []model.CharacterRecord{{Name: "Unnamed Protagonist", Role: "Protagonist"}}
	}

	if fullRebuild {
		if err := i.store.ClearAll(); err != nil {
			return nil, err
		}
	}

	result := &Result{GameTitle: gameTitle}

	game := model.GameRecord{Title: gameTitle}
	if metadataInferred {
		game.Synopsis = metadata.Overview
		game.Genre = metadata.Genre
	}
	if _, err := i.store.UpsertGame(game); err != nil {
		return nil, err
	}

	added, err := i.store.UpsertChapters(gameTitle, chapters)
	if err != nil {
		return nil, err
	}
	result.AddedChapters = added

	added, err = i.store.UpsertCharacters(gameTitle, characters)
	if err != nil {
		return nil, err
	}
	result.AddedCharacters = added

	entities, err := i.inferencer.ExtractEntities(ctx, content)
	if err != nil {
		return nil, err
	}

	var locations []model.LocationRecord
	for _, name := range entities.Locations {
		locations = append(locations, model.LocationRecord{Name: name})
	}
	added, err = i.store.UpsertLocations(gameTitle, locations)
	if err != nil {
		return nil, err
	}
	result.AddedLocations = added

	groups := make([]model.GroupRecord, 0, len(entities.Races))
	for _, race := range entities.Races {
		groups = append(groups, model.GroupRecord{Name: race, Race: true})
	}
	if metadataInferred {
		groups = append(groups, metadata.ImplicitGroups...)
	}
	added, err = i.store.UpsertGroups(gameTitle, groups)
	if err != nil {
		return nil, err
	}
	result.AddedGroups = added

	if metadataInferred {
		added, err = i.store.UpsertKeyItems(gameTitle, metadata.KeyItems)
		if err != nil {
			return nil, err
		}
		result.AddedKeyItems = added

		added, err = i.store.UpsertLevels(gameTitle, metadata.Levels)
		if err != nil {
			return nil, err
		}
		result.AddedLevels = added
	}

	// Relationships come last so both endpoints exist by now
	relationships := entities.Relationships
	if metadataInferred {
		relationships = mergeRelationships(metadata.CharacterRelationships, relationships)
	}
	added, err = i.store.LinkRelationships(gameTitle, relationships)
	if err != nil {
		return nil, err
	}
	result.AddedRelationships = added

	if protagonist := i.classifier.Protagonist(characters); protagonist != nil {
		if _, err := i.store.LinkParticipation(gameTitle, protagonist.Name); err != nil {
			return nil, err
		}
	}

	if err := i.linkChapterLocationPairs(gameTitle, chapters); err != nil {
		return nil, err
	}

	if err := i.recordDocument(doc, result); err != nil {
		return nil, err
	}

	i.log.Info("Ingested document",
		slog.String("game", gameTitle),
		slog.Bool("fullRebuild", fullRebuild),
		slog.Int("addedChapters", result.AddedChapters),
		slog.Int("addedCharacters", result.AddedCharacters),
		slog.Int("addedLocations", result.AddedLocations),
		slog.Int("addedRelationships", result.AddedRelationships))

	return result, nil
}

// linkChapterLocationPairs applies the spatial heuristics to every location
// pair sharing a chapter, e.g. a facility is LOCATED_ON the planet it is
// mentioned next to
func (i *Ingestor) linkChapterLocationPairs(gameTitle string, chapters []model.ChapterRecord) error {
	for _, chapter := range chapters {
		for a := 0; a < len(chapter.Locations); a++ {
			for b := a + 1; b < len(chapter.Locations); b++ {
				edgeType, from, to, ok := i.classifier.LocationRelation(chapter.Locations[a], chapter.Locations[b])
				if !ok {
					continue
				}
				if _, err := i.store.LinkLocationPair(gameTitle, edgeType, from, to); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// recordDocument writes the document row and reports whether it is new
func (i *Ingestor) recordDocument(doc *model.Document, result *Result) error {
	existing, err := i.documents.SelectDocumentByTitle(doc.Title)
	if err != nil {
		return err
	}
	result.NewDocument = existing == nil

	if doc.Metadata == nil {
		doc.Metadata = model.Metadata{}
	}
	doc.Metadata["game_title"] = result.GameTitle

	return i.documents.UpsertDocument(doc)
}

// mergeRelationships overlays extracted relationships onto inferred ones;
// the extraction result wins on conflicts
func mergeRelationships(inferred, extracted map[string]map[string]string) map[string]map[string]string {
	merged := map[string]map[string]string{}
	for source, targets := range inferred {
		merged[source] = map[string]string{}
		for target, relation := range targets {
			merged[source][target] = relation
		}
	}
	for source, targets := range extracted {
		if merged[source] == nil {
			merged[source] = map[string]string{}
		}
		for target, relation := range targets {
			merged[source][target] = relation
		}
	}
	return merged
}
