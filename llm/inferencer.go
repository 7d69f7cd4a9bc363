package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/loremaker/loregraph/model"
)

// Inferencer runs extraction prompts against a Provider and parses the
// responses into typed records. A malformed response degrades to the empty
// value with a warning; a provider failure propagates as *ProviderError.
type Inferencer struct {
	provider Provider
	log      *slog.Logger
}

// NewInferencer creates an inferencer over the given provider
func NewInferencer(provider Provider, logger *slog.Logger) *Inferencer {
	return &Inferencer{provider: provider, log: logger}
}

const entityPrompt = `다음 게임 디자인 문서에서 엔티티를 추출하세요.

문서:
%s

다음 JSON 형식으로만 응답하세요:
{
  "characters": ["이름", ...],
  "locations": ["장소", ...],
  "races": ["종족", ...],
  "relationships": {"이름": {"상대 이름": "신뢰|우호적|중립|적대적|증오"}}
}`

const metadataPrompt = `다음 게임 디자인 문서에서 게임 메타데이터를 추론하세요.

문서:
%s

다음 JSON 형식으로만 응답하세요:
{
  "title": "게임 제목",
  "overview": "한 문단 개요",
  "genre": "장르",
  "levels": [{"name": "레벨 이름", "order": 1, "theme": "테마", "atmosphere": "분위기"}],
  "characters": [{"name": "이름", "role": "역할", "background": "배경", "relation_to_player": "관계"}],
  "character_relationships": {"이름": {"상대 이름": "관계"}},
  "implicit_groups": [{"name": "집단 이름", "members": ["이름"], "habitat": "서식지"}],
  "key_items": [{"name": "아이템", "description": "설명", "estimated_location": "위치"}]
}`

// ExtractEntities asks the model for the characters, locations, races and
// relationships mentioned in a document. An unparseable response yields an
// empty set, never an error.
func (inf *Inferencer) ExtractEntities(ctx context.Context, doc string) (model.EntitySet, error) {
	output, err := inf.provider.Generate(ctx, fmt.Sprintf(entityPrompt, doc), Options{Temperature: 0.1, MaxTokens: 4096})
	if err != nil {
		return model.EmptyEntitySet(), err
	}

	payload, ok := extractJSON(output)
	if !ok {
		inf.log.Warn("No JSON object found in entity extraction response", slog.String("provider", inf.provider.Name()))
		return model.EmptyEntitySet(), nil
	}

	var raw model.EntitySet
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		inf.log.Warn("Entity extraction response did not match schema", slog.String("error", err.Error()))
		return model.EmptyEntitySet(), nil
	}

	set := model.EntitySet{
		Characters:    dedupeNames(raw.Characters),
		Locations:     dedupeNames(raw.Locations),
		Races:         dedupeNames(raw.Races),
		Relationships: raw.Relationships,
	}
	if set.Relationships == nil {
		set.Relationships = map[string]map[string]string{}
	}
	return set, nil
}

// InferMetadata asks the model for game-level metadata. Used when pattern
// extraction finds nothing in the document. An unparseable response yields
// empty metadata, never an error.
func (inf *Inferencer) InferMetadata(ctx context.Context, doc string) (model.GameMetadata, error) {
	output, err := inf.provider.Generate(ctx, fmt.Sprintf(metadataPrompt, doc), Options{Temperature: 0.1, MaxTokens: 8192})
	if err != nil {
		return model.EmptyGameMetadata(), err
	}

	payload, ok := extractJSON(output)
	if !ok {
		inf.log.Warn("No JSON object found in metadata inference response", slog.String("provider", inf.provider.Name()))
		return model.EmptyGameMetadata(), nil
	}

	metadata := model.EmptyGameMetadata()
	if err := json.Unmarshal([]byte(payload), &metadata); err != nil {
		inf.log.Warn("Metadata inference response did not match schema", slog.String("error", err.Error()))
		return model.EmptyGameMetadata(), nil
	}
	if metadata.CharacterRelationships == nil {
		metadata.CharacterRelationships = map[string]map[string]string{}
	}
	return metadata, nil
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls a JSON object out of a model response: a fenced
// ```json block first, else the first balanced top-level object
func extractJSON(output string) (string, bool) {
	if match := fencedJSONPattern.FindStringSubmatch(output); match != nil {
		return match[1], true
	}

	start := strings.Index(output, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(output); i++ {
		c := output[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return output[start : i+1], true
			}
		}
	}
	return "", false
}

// IsProviderError reports whether the error chain contains a provider failure
func IsProviderError(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr)
}

// dedupeNames trims and deduplicates a name list, keeping first occurrence
func dedupeNames(names []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}
