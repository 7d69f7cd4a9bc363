package main

import (
	"context"
	"fmt"
	"log"

	"github.com/loremaker/loregraph"
	"github.com/loremaker/loregraph/helper"
	"github.com/loremaker/loregraph/llm"
	"github.com/loremaker/loregraph/retrieval"
)

const sampleDocument = `# 별의 유산

우주를 배경으로 한 어드벤처 게임.

## 스토리라인

### 챕터 개요

#### 챕터 1: 도착
주인공이 버려진 정거장에 도착한다.
**목표:**
- 정거장 탐사하기
- 전력 복구하기
**주요 위치:**
- Kepler Station
- Veridian Planet
**주요 사건:**
- **첫 접촉**: 미지의 신호를 수신한다

#### 챕터 2: 탈출
정거장을 벗어나야 한다.
**목표:**
- 문 열기
- 탈출하기

## 주요 등장인물

#### 카엘
- **역할:** 주인공
- **배경:** 전직 탐사선 항해사

#### 아라
- **역할:** Guardian
- **배경:** 고대 유적의 수호자
`

// Canned extraction response so the example runs without API keys.
// Swap llm.NewStatic for loregraph.New with a real provider config to use
// Gemini or OpenAI.
const entityResponse = `{
	"characters": ["카엘", "아라"],
	"locations": ["Kepler Station", "Veridian Planet"],
	"races": [],
	"relationships": {"카엘": {"아라": "신뢰"}}
}`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	lg, err := loregraph.NewWithProvider(dbConfig, llm.NewStatic(entityResponse))
	if err != nil {
		log.Fatalf("Failed to create loregraph: %v", err)
	}
	defer lg.Close()

	ctx := context.Background()

	// Ingest the design document with a full rebuild
	fmt.Println("Ingesting document...")
	result, err := lg.IngestDocument(ctx, sampleDocument, true)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Game: %s\n", result.GameTitle)
	fmt.Printf("Added %d chapters, %d characters, %d relationships\n",
		result.AddedChapters, result.AddedCharacters, result.AddedRelationships)

	// Query the graph directly
	chapters, err := lg.Store.GetChapters(result.GameTitle)
	if err != nil {
		log.Fatalf("Failed to get chapters: %v", err)
	}
	fmt.Println("\nChapters:")
	for _, chapter := range chapters {
		fmt.Printf("  챕터 %d: %s\n", *chapter.Number, chapter.Name)
	}

	relations, err := lg.Store.GetCharacterRelationships(result.GameTitle)
	if err != nil {
		log.Fatalf("Failed to get relationships: %v", err)
	}
	fmt.Println("\nRelationships:")
	for _, relation := range relations {
		fmt.Printf("  %s -> %s: %s\n", relation.Source, relation.Target, relation.Type)
	}

	// Retrieve the context an update request would see
	retrieved, err := lg.Retrieve(result.GameTitle, "카엘의 배경을 바꿔줘", "")
	if err != nil {
		log.Fatalf("Failed to retrieve context: %v", err)
	}
	fmt.Printf("\nContext for an update request (%s):\n%s\n",
		retrieved.ContextType, retrieval.FormatContext(retrieved))
}
