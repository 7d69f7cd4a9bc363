package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loremaker/loregraph/llm"
	"github.com/loremaker/loregraph/markdown"
	"github.com/loremaker/loregraph/model"
)

// GraphWriter is the graph surface the updater needs for syncing extracted
// entities back into the graph
type GraphWriter interface {
	GetGame(gameTitle string) (*model.Node, error)
	GetChapter(gameTitle string, number int) (*model.Node, error)
	GetChapterNeighbors(gameTitle string, number int) ([]*model.Neighbor, error)
	GetNodesByLabel(gameTitle string, label model.Label) ([]*model.Node, error)
	UpsertCharacters(gameTitle string, characters []model.CharacterRecord) (int, error)
	UpsertLocations(gameTitle string, locations []model.LocationRecord) (int, error)
	UpsertGroups(gameTitle string, groups []model.GroupRecord) (int, error)
	LinkRelationships(gameTitle string, relationships map[string]map[string]string) (int, error)
}

// EntityExtractor turns a document into a typed entity set
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, doc string) (model.EntitySet, error)
}

// Stats reports what one graph sync added
type Stats struct {
	AddedCharacters    int `json:"added_characters"`
	AddedLocations     int `json:"added_locations"`
	AddedGroups        int `json:"added_groups"`
	AddedRelationships int `json:"added_relationships"`
}

// Updater rewrites documents through the LLM with graph context as the
// source of truth and syncs rewritten documents back into the graph
type Updater struct {
	provider   llm.Provider
	inferencer EntityExtractor
	retriever  *Retriever
	store      GraphWriter
	extractor  *markdown.Extractor
	log        *slog.Logger
}

// NewUpdater creates an updater over the given provider, inferencer and graph
func NewUpdater(provider llm.Provider, inferencer EntityExtractor, retriever *Retriever, store GraphWriter, logger *slog.Logger) *Updater {
	return &Updater{
		provider:   provider,
		inferencer: inferencer,
		retriever:  retriever,
		store:      store,
		extractor:  markdown.NewExtractor(logger),
		log:        logger,
	}
}

const updatePromptTemplate = `당신은 게임 기획 문서를 수정하는 전문 작가입니다.

## 원본 문서
%s

## 수정 요청
%s

## 그래프 컨텍스트 (설정된 사실)
%s

## 규칙
1. 수정 요청과 직접 관련된 부분만 변경하고 나머지는 그대로 유지하세요.
2. 그래프 컨텍스트에 기록된 사실(관계, 위치, 챕터 순서)과 모순되는 내용을 쓰지 마세요.
3. 컨텍스트에 없는 새로운 캐릭터나 장소를 임의로 만들지 마세요.
4. 원본 문서의 마크다운 구조와 제목 형식을 유지하세요.
5. 수정된 문서 전체를 반환하세요. 설명이나 주석을 덧붙이지 마세요.`

// BuildPrompt assembles the update prompt from the verbatim original
// document, the request and the formatted graph context
func (u *Updater) BuildPrompt(original, request, contextBlock string) string {
	if contextBlock == "" {
		contextBlock = "(컨텍스트 없음)"
	}
	return fmt.Sprintf(updatePromptTemplate, original, request, contextBlock)
}

// UpdateDocument rewrites a document per the request, constrained by the
// graph context of the game. The model output is returned verbatim; it is
// one generation call with no post-processing.
func (u *Updater) UpdateDocument(ctx context.Context, original, request, contextType string) (string, error) {
	gameTitle := u.extractor.GameTitle(original)

	retrieved, err := u.retriever.Retrieve(gameTitle, request, contextType)
	if err != nil {
		return "", err
	}

	prompt := u.BuildPrompt(original, request, FormatContext(retrieved))

	u.log.Info("Updating document",
		slog.String("game", gameTitle),
		slog.String("contextType", retrieved.ContextType),
		slog.Int("promptLength", len(prompt)))

	return u.provider.Generate(ctx, prompt, llm.Options{Temperature: 0.3, MaxTokens: 8192})
}

// SyncGraphFromDocument extracts entities from an updated document and
// merges them into the graph. Characters already in the graph are left
// untouched so curated roles and backgrounds survive a sync. Returns the
// delta of what was added.
func (u *Updater) SyncGraphFromDocument(ctx context.Context, doc string) (*Stats, error) {
	gameTitle := u.extractor.GameTitle(doc)

	game, err := u.store.GetGame(gameTitle)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %q not found, ingest the document first", gameTitle)
	}

	entities, err := u.inferencer.ExtractEntities(ctx, doc)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	existing, err := u.store.GetNodesByLabel(gameTitle, model.LabelCharacter)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, character := range existing {
		known[character.Name] = true
	}

	var characters []model.CharacterRecord
	for _, name := range entities.Characters {
		if known[name] {
			continue
		}
		characters = append(characters, model.CharacterRecord{Name: name})
	}
	stats.AddedCharacters, err = u.store.UpsertCharacters(gameTitle, characters)
	if err != nil {
		return nil, err
	}

	var locations []model.LocationRecord
	for _, name := range entities.Locations {
		locations = append(locations, model.LocationRecord{Name: name})
	}
	stats.AddedLocations, err = u.store.UpsertLocations(gameTitle, locations)
	if err != nil {
		return nil, err
	}

	var groups []model.GroupRecord
	for _, name := range entities.Races {
		groups = append(groups, model.GroupRecord{Name: name, Race: true})
	}
	stats.AddedGroups, err = u.store.UpsertGroups(gameTitle, groups)
	if err != nil {
		return nil, err
	}

	// Entities first, then relationships, so both endpoints exist
	stats.AddedRelationships, err = u.store.LinkRelationships(gameTitle, entities.Relationships)
	if err != nil {
		return nil, err
	}

	u.log.Info("Synced graph from document",
		slog.String("game", gameTitle),
		slog.Int("addedCharacters", stats.AddedCharacters),
		slog.Int("addedLocations", stats.AddedLocations),
		slog.Int("addedGroups", stats.AddedGroups),
		slog.Int("addedRelationships", stats.AddedRelationships))

	return stats, nil
}

const suggestPromptTemplate = `당신은 게임 기획 문서를 작성하는 전문 작가입니다.
다음 챕터의 개요와 세부 내용을 작성하세요.

## 챕터
챕터 %d: %s

## 그래프 컨텍스트 (설정된 사실)
%s

## 작성 지침
%s

## 규칙
1. 그래프 컨텍스트에 기록된 목표, 위치, 사건과 모순되는 내용을 쓰지 마세요.
2. 개요 한 단락과 세부 내용 섹션을 마크다운으로 작성하세요.
3. 설명이나 주석을 덧붙이지 마세요.`

// SuggestChapterContent drafts an outline and details for a chapter,
// grounded in its graph neighborhood
func (u *Updater) SuggestChapterContent(ctx context.Context, gameTitle string, number int, guideline string) (string, error) {
	chapter, err := u.store.GetChapter(gameTitle, number)
	if err != nil {
		return "", err
	}
	if chapter == nil {
		return "", fmt.Errorf("chapter %d of game %q not found", number, gameTitle)
	}

	neighbors, err := u.store.GetChapterNeighbors(gameTitle, number)
	if err != nil {
		return "", err
	}

	contextBlock := FormatNeighbors(fmt.Sprintf("챕터 %d: %s", number, chapter.Name), neighbors)
	if contextBlock == "" {
		contextBlock = "(컨텍스트 없음)"
	}
	if guideline == "" {
		guideline = "챕터 제목과 컨텍스트에 맞는 내용을 자유롭게 구성하세요."
	}

	prompt := fmt.Sprintf(suggestPromptTemplate, number, chapter.Name, contextBlock, guideline)

	u.log.Info("Suggesting chapter content", slog.String("game", gameTitle), slog.Int("number", number))

	return u.provider.Generate(ctx, prompt, llm.Options{Temperature: 0.7, MaxTokens: 8192})
}
