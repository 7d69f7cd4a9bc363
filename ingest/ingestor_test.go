package ingest

import (
	"context"
	"testing"

	"github.com/loremaker/loregraph/llm"
	"github.com/loremaker/loregraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGame = "별의 유산"

const testDocument = `# 별의 유산

우주를 배경으로 한 어드벤처 게임.

## 스토리라인

### 챕터 개요

#### 챕터 1: 도착
주인공이 버려진 정거장에 도착한다.
**목표:**
- 정거장 탐사하기
**주요 위치:**
- Kepler Station
- Veridian Planet
**주요 사건:**
- **첫 접촉**: 미지의 신호를 수신한다

#### 챕터 2: 탈출
정거장을 벗어나야 한다.
**목표:**
- 문 열기

## 주요 등장인물

#### 카엘
- **역할:** 주인공
- **배경:** 전직 탐사선 항해사

#### 아라
- **역할:** Guardian
- **배경:** 고대 유적의 수호자
`

const testEntityResponse = `{
	"characters": ["카엘", "아라"],
	"locations": ["Kepler Station", "Veridian Planet"],
	"races": ["보이드 킨"],
	"relationships": {"카엘": {"아라": "신뢰"}}
}`

func TestIngestDocument(t *testing.T) {
	t.Run("Full ingest builds the graph", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(testEntityResponse))

		result, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err, "ingest should not fail")

		assert.Equal(t, testGame, result.GameTitle, "game title should be extracted")
		assert.Equal(t, 2, result.AddedChapters, "both chapters should be added")
		assert.Equal(t, 2, result.AddedCharacters, "both characters should be added")
		assert.Equal(t, 1, result.AddedGroups, "race should be added as a group")
		assert.Equal(t, 1, result.AddedRelationships, "relationship should be added")
		assert.True(t, result.NewDocument, "document should be recorded as new")

		game, err := env.store.GetGame(testGame)
		require.NoError(t, err)
		require.NotNil(t, game, "game node should exist")

		chapters, err := env.store.GetChapters(testGame)
		require.NoError(t, err)
		assert.Len(t, chapters, 2, "chapter nodes should exist")

		relations, err := env.store.GetCharacterRelationships(testGame)
		require.NoError(t, err)
		require.Len(t, relations, 1, "relationship edge should exist")
		assert.Equal(t, model.RelationTrusts, relations[0].Type, "신뢰 should map to TRUSTS")

		// Kepler Station orbits Veridian Planet per the spatial heuristic
		orbits, err := env.edges.CountEdgesByType(model.EdgeOrbits)
		require.NoError(t, err)
		assert.Equal(t, int64(1), orbits, "station should orbit the planet")

		// Protagonist participates in every event
		participation, err := env.edges.CountEdgesByType(model.EdgeParticipatesIn)
		require.NoError(t, err)
		assert.Equal(t, int64(1), participation, "protagonist should participate in the event")

		doc, err := env.documents.SelectDocumentByTitle(testGame)
		require.NoError(t, err)
		require.NotNil(t, doc, "document row should be recorded")
		assert.Equal(t, testGame, doc.Metadata.String("game_title"), "document metadata should carry the game title")
	})

	t.Run("Re-ingesting is a no-op", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(testEntityResponse))

		_, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err)

		nodesBefore, err := env.store.CountNodes()
		require.NoError(t, err)
		edgesBefore, err := env.store.CountEdges()
		require.NoError(t, err)

		result, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err, "re-ingest should not fail")

		assert.Zero(t, result.AddedChapters, "no chapters should be added")
		assert.Zero(t, result.AddedCharacters, "no characters should be added")
		assert.Zero(t, result.AddedLocations, "no locations should be added")
		assert.Zero(t, result.AddedGroups, "no groups should be added")
		assert.Zero(t, result.AddedRelationships, "no relationships should be added")
		assert.False(t, result.NewDocument, "document should not be new")

		nodesAfter, err := env.store.CountNodes()
		require.NoError(t, err)
		edgesAfter, err := env.store.CountEdges()
		require.NoError(t, err)
		assert.Equal(t, nodesBefore, nodesAfter, "node count should not change")
		assert.Equal(t, edgesBefore, edgesAfter, "edge count should not change")
	})

	t.Run("Incremental ingest reports only the delta", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(testEntityResponse))

		_, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err)

		extended := `# 별의 유산

## 스토리라인

### 챕터 개요

#### 챕터 1: 도착
주인공이 버려진 정거장에 도착한다.
**주요 위치:**
- Kepler Station
- Veridian Planet

#### 챕터 2: 탈출
정거장을 벗어나야 한다.

#### 챕터 3: 귀환
고향으로 돌아간다.
**목표:**
- 신호 보내기

## 주요 등장인물

#### 카엘
- **역할:** 주인공
- **배경:** 전직 탐사선 항해사

#### 아라
- **역할:** Guardian
- **배경:** 고대 유적의 수호자
`
		result, err := env.ingestor.IngestDocument(context.Background(), extended, false)
		require.NoError(t, err, "incremental ingest should not fail")

		assert.Equal(t, 1, result.AddedChapters, "only the new chapter should count")
		assert.Zero(t, result.AddedCharacters, "existing characters should not count")
	})

	t.Run("Full rebuild clears the previous graph", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(testEntityResponse))

		_, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err)

		other := `# 다른 게임

## 스토리라인

### 챕터 개요

#### 챕터 1: 시작
새로운 이야기.

## 주요 등장인물

#### 미호
- **역할:** 주인공
- **배경:** 떠돌이 검객
`
		_, err = env.ingestor.IngestDocument(context.Background(), other, true)
		require.NoError(t, err, "full rebuild should not fail")

		old, err := env.store.GetGame(testGame)
		require.NoError(t, err)
		assert.Nil(t, old, "previous game should be gone after a full rebuild")

		current, err := env.store.GetGame("다른 게임")
		require.NoError(t, err)
		assert.NotNil(t, current, "rebuilt game should exist")
	})

	t.Run("Document without chapters is rejected", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(testEntityResponse))

		_, err := env.ingestor.IngestDocument(context.Background(), "# 빈 문서\n\n내용 없음", false)
		require.ErrorIs(t, err, ErrNoChapters, "chapterless document should be rejected")

		count, err := env.store.CountNodes()
		require.NoError(t, err)
		assert.Zero(t, count, "nothing should be written")
	})

	t.Run("Unparseable entity response degrades to empty set", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic("the model rambles without json"))

		result, err := env.ingestor.IngestDocument(context.Background(), testDocument, false)
		require.NoError(t, err, "schema failure should not fail the ingest")

		assert.Equal(t, 2, result.AddedChapters, "chapters still come from pattern extraction")
		assert.Zero(t, result.AddedLocations, "no entity locations should be added")
		assert.Zero(t, result.AddedRelationships, "no relationships should be added")
	})
}

func TestIngestMetadataFallback(t *testing.T) {
	// No character sections at all, so ingestion falls back to metadata
	// inference for characters, levels, groups and key items
	doc := `# 별의 유산

## 스토리라인

### 챕터 개요

#### 챕터 1: 도착
주인공이 정거장에 도착한다.
**주요 위치:**
- Kepler Station
`

	metadataResponse := `{
		"title": "별의 유산",
		"overview": "우주 어드벤처",
		"genre": "Adventure",
		"characters": [{"name": "카엘", "role": "주인공"}],
		"character_relationships": {},
		"levels": [{"name": "정거장 내부", "order": 1}],
		"implicit_groups": [{"name": "탐사대", "members": ["카엘"]}],
		"key_items": [{"name": "신호 장치", "estimated_location": "Kepler Station"}]
	}`

	t.Run("Metadata inference fills missing characters", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(metadataResponse, testEntityResponse))

		result, err := env.ingestor.IngestDocument(context.Background(), doc, false)
		require.NoError(t, err, "ingest should not fail")

		assert.Equal(t, 1, result.AddedCharacters, "character should come from metadata inference")
		assert.Equal(t, 1, result.AddedLevels, "level should come from metadata")
		assert.Equal(t, 1, result.AddedKeyItems, "key item should come from metadata")
		assert.Equal(t, 2, result.AddedGroups, "race and implicit group should be added")

		game, err := env.store.GetGame(testGame)
		require.NoError(t, err)
		require.NotNil(t, game)
		assert.Equal(t, "우주 어드벤처", game.Properties.String("synopsis"), "inferred overview should land on the game node")

		characters, err := env.store.GetCharacters(testGame)
		require.NoError(t, err)
		require.Len(t, characters, 1)
		assert.Equal(t, "카엘", characters[0].Name, "inferred character should exist")
	})

	t.Run("No characters anywhere yields a generic protagonist", func(t *testing.T) {
		env := initIngestor(t, llm.NewStatic(`{"title": "별의 유산"}`, `{"characters": [], "locations": [], "races": [], "relationships": {}}`))

		result, err := env.ingestor.IngestDocument(context.Background(), doc, false)
		require.NoError(t, err, "ingest should not fail")
		assert.Equal(t, 1, result.AddedCharacters, "a generic protagonist should be created")

		characters, err := env.store.GetCharacters(testGame)
		require.NoError(t, err)
		require.Len(t, characters, 1)
		assert.Equal(t, "Unnamed Protagonist", characters[0].Name, "placeholder protagonist should exist")
		assert.Equal(t, "Protagonist", characters[0].Properties.String("role"), "placeholder should carry the protagonist role")
	})
}
