// The advanced example walks the full update loop: ingest a document, ask
// the model for a graph-constrained rewrite, sync the rewritten document
// back into the graph and inspect the reported delta.
//
// It uses canned model responses so it runs offline. To run it against a
// real model, replace NewWithProvider with:
//
//	lg, err := loregraph.New(ctx, dbConfig, &llm.Config{
//		Provider: "gemini",
//		APIKey:   os.Getenv("LLM_API_KEY"),
//	})
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/loremaker/loregraph"
	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/llm"
	"github.com/loremaker/loregraph/model"
)

const designDocument = `# 별의 유산

## 스토리라인

### 챕터 개요

#### 챕터 1: 도착
주인공이 버려진 정거장에 도착한다.
**주요 위치:**
- Kepler Station
- Veridian Planet

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

const baseEntities = `{
	"characters": ["카엘", "아라"],
	"locations": ["Kepler Station", "Veridian Planet"],
	"races": [],
	"relationships": {"카엘": {"아라": "신뢰"}}
}`

const updatedDocument = designDocument + `
#### Kael
- **역할:** Antagonist
- **배경:** 카엘의 어두운 거울상
`

const updatedEntities = `{
	"characters": ["카엘", "아라", "Kael"],
	"locations": ["Kepler Station", "Veridian Planet"],
	"races": [],
	"relationships": {"카엘": {"아라": "신뢰", "Kael": "적대적"}}
}`

func main() {
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Responses in call order: ingest extraction, document rewrite,
	// sync extraction, chapter suggestion
	provider := llm.NewStatic(baseEntities, updatedDocument, updatedEntities, "챕터 2의 새 개요와 상세 내용")

	lg, err := loregraph.NewWithProvider(dbConfig, provider)
	if err != nil {
		log.Fatalf("Failed to create loregraph: %v", err)
	}
	defer lg.Close()

	ctx := context.Background()

	// 1. Ingest the document
	result, err := lg.IngestDocument(ctx, designDocument, true)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Ingested %q: %d chapters, %d characters\n",
		result.GameTitle, result.AddedChapters, result.AddedCharacters)

	// 2. Ask for a rewrite constrained by the graph
	updated, err := lg.UpdateDocument(ctx, designDocument, "카엘과 적대적인 라이벌 캐릭터를 추가해줘", "")
	if err != nil {
		log.Fatalf("Failed to update document: %v", err)
	}
	fmt.Printf("\nUpdated document is %d characters long\n", len(updated))

	// 3. Sync the rewritten document back into the graph
	stats, err := lg.SyncGraphFromDocument(ctx, updated)
	if err != nil {
		log.Fatalf("Failed to sync graph: %v", err)
	}
	fmt.Printf("Sync delta: +%d characters, +%d relationships\n",
		stats.AddedCharacters, stats.AddedRelationships)

	// 4. Draft new content for a chapter, grounded in its neighborhood
	suggestion, err := lg.SuggestChapterContent(ctx, result.GameTitle, 2, "더 긴박하게")
	if err != nil {
		log.Fatalf("Failed to suggest chapter content: %v", err)
	}
	fmt.Printf("\nChapter suggestion:\n%s\n", suggestion)

	// 5. Walk the chapter chain from the game node
	game, err := lg.Store.GetGame(result.GameTitle)
	if err != nil || game == nil {
		log.Fatalf("Failed to get game node: %v", err)
	}
	results, err := lg.BFSTraversal(game.ID, 2, []model.EdgeType{model.EdgeHasChapter, model.EdgeFollowedBy}, false)
	if err != nil {
		log.Fatalf("Failed to traverse: %v", err)
	}
	fmt.Println("\nTraversal from the game node:")
	for _, r := range results {
		fmt.Printf("  distance %d: %s %q\n", r.Distance, r.Node.Label, r.Node.Name)
	}
}
