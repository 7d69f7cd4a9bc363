// Package retrieval extracts the graph context relevant to an update
// request and feeds it, rendered as natural language, into LLM prompts.
// Retrieval is deterministic subgraph extraction, there is no similarity
// search involved.
package retrieval

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/loremaker/loregraph/model"
)

// Context types steering which subgraph is extracted for a request
const (
	ContextCharacter = "character"
	ContextLocation  = "location"
	ContextChapter   = "chapter"
	ContextGeneral   = "general"
)

// GraphReader is the narrow read interface the retriever needs
type GraphReader interface {
	GetCharacters(gameTitle string) ([]*model.Node, error)
	GetCharacterRelationships(gameTitle string) ([]*model.CharacterRelation, error)
	GetLocations(gameTitle string) ([]*model.Node, error)
	GetChapters(gameTitle string) ([]*model.Node, error)
	GetChapterNeighbors(gameTitle string, number int) ([]*model.Neighbor, error)
	FindNodeByName(gameTitle, name string) (*model.Node, error)
	GetNeighbors(nodeID int64) ([]*model.Neighbor, error)
}

// Context is the subgraph extracted for one request
type Context struct {
	ContextType   string
	Characters    []*model.Node
	Locations     []*model.Node
	Chapters      []*model.Node
	Relationships []*model.CharacterRelation
	// Matched holds nodes resolved from names in the request together
	// with their one-hop neighborhoods
	Matched []*MatchedNode
}

// MatchedNode is a node resolved from a request name with its neighborhood
type MatchedNode struct {
	Node      *model.Node
	Neighbors []*model.Neighbor
}

// IsEmpty reports whether retrieval found nothing at all
func (c *Context) IsEmpty() bool {
	return len(c.Characters) == 0 && len(c.Locations) == 0 && len(c.Chapters) == 0 &&
		len(c.Relationships) == 0 && len(c.Matched) == 0
}

// Retriever extracts request-relevant context from the graph
type Retriever struct {
	reader GraphReader
	log    *slog.Logger
}

// NewRetriever creates a retriever over the given graph reader
func NewRetriever(reader GraphReader, logger *slog.Logger) *Retriever {
	return &Retriever{reader: reader, log: logger}
}

var chapterRefPattern = regexp.MustCompile(`(?:챕터|Chapter)\s+(\d+)`)

// Retrieve extracts the subgraph for an update request. An empty
// contextType is classified from the request; unknown context types fall
// back to the general category.
func (r *Retriever) Retrieve(gameTitle, request, contextType string) (*Context, error) {
	if contextType == "" {
		contextType = classifyRequest(request)
	}

	context := &Context{ContextType: contextType}

	switch contextType {
	case ContextCharacter:
		if err := r.addCharacters(gameTitle, context); err != nil {
			return nil, err
		}
	case ContextLocation:
		if err := r.addLocations(gameTitle, context); err != nil {
			return nil, err
		}
	case ContextChapter:
		if err := r.addChapters(gameTitle, request, context); err != nil {
			return nil, err
		}
	default:
		// Unknown types degrade to the general category
		context.ContextType = ContextGeneral
		if err := r.addCharacters(gameTitle, context); err != nil {
			return nil, err
		}
		if err := r.addLocations(gameTitle, context); err != nil {
			return nil, err
		}
		if err := r.addChapters(gameTitle, request, context); err != nil {
			return nil, err
		}
	}

	if err := r.addNameMatches(gameTitle, request, context); err != nil {
		return nil, err
	}

	if context.IsEmpty() {
		r.log.Warn("Retrieval found no context", slog.String("game", gameTitle), slog.String("contextType", contextType))
	}

	return context, nil
}

func (r *Retriever) addCharacters(gameTitle string, context *Context) error {
	characters, err := r.reader.GetCharacters(gameTitle)
	if err != nil {
		return err
	}
	context.Characters = characters

	relationships, err := r.reader.GetCharacterRelationships(gameTitle)
	if err != nil {
		return err
	}
	context.Relationships = relationships
	return nil
}

func (r *Retriever) addLocations(gameTitle string, context *Context) error {
	locations, err := r.reader.GetLocations(gameTitle)
	if err != nil {
		return err
	}
	context.Locations = locations
	return nil
}

func (r *Retriever) addChapters(gameTitle, request string, context *Context) error {
	chapters, err := r.reader.GetChapters(gameTitle)
	if err != nil {
		return err
	}
	context.Chapters = chapters

	// Explicitly referenced chapters contribute their neighborhoods
	for _, match := range chapterRefPattern.FindAllStringSubmatch(request, -1) {
		number, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		neighbors, err := r.reader.GetChapterNeighbors(gameTitle, number)
		if err != nil {
			return err
		}
		for _, chapter := range chapters {
			if chapter.Number != nil && *chapter.Number == number {
				context.Matched = append(context.Matched, &MatchedNode{Node: chapter, Neighbors: neighbors})
			}
		}
	}
	return nil
}

// addNameMatches resolves capitalized tokens of the request against the
// graph and attaches matched nodes with their neighborhoods
func (r *Retriever) addNameMatches(gameTitle, request string, context *Context) error {
	seen := map[int64]bool{}
	for _, matched := range context.Matched {
		seen[matched.Node.ID] = true
	}

	for _, name := range candidateNames(request) {
		node, err := r.reader.FindNodeByName(gameTitle, name)
		if err != nil {
			return err
		}
		if node == nil || seen[node.ID] {
			continue
		}
		seen[node.ID] = true

		neighbors, err := r.reader.GetNeighbors(node.ID)
		if err != nil {
			return err
		}
		context.Matched = append(context.Matched, &MatchedNode{Node: node, Neighbors: neighbors})
	}
	return nil
}

// classifyRequest picks a context type from request keywords
func classifyRequest(request string) string {
	lower := strings.ToLower(request)
	switch {
	case strings.Contains(lower, "캐릭터") || strings.Contains(lower, "인물") || strings.Contains(lower, "character"):
		return ContextCharacter
	case strings.Contains(lower, "위치") || strings.Contains(lower, "장소") || strings.Contains(lower, "location"):
		return ContextLocation
	case chapterRefPattern.MatchString(request) || strings.Contains(lower, "챕터") || strings.Contains(lower, "chapter"):
		return ContextChapter
	default:
		return ContextGeneral
	}
}

// candidateNames extracts potential entity names from a request: runs of
// capitalized Latin tokens and Hangul tokens. Punctuation is trimmed.
func candidateNames(request string) []string {
	var names []string
	seen := map[string]bool{}

	// Every candidate is also added with a trailing Korean particle
	// stripped, so "Kael의" and "카엘의" resolve as "Kael" and "카엘"
	var add func(name string)
	add = func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
		if stripped := stripParticle(name); stripped != name {
			add(stripped)
		}
	}

	tokens := strings.Fields(request)
	var run []string
	// Runs of capitalized tokens yield every contiguous sub-run, so a name
	// preceded by a capitalized verb still matches
	flush := func() {
		for i := range run {
			for j := i; j < len(run); j++ {
				add(strings.Join(run[i:j+1], " "))
			}
		}
		run = nil
	}

	for _, token := range tokens {
		trimmed := trimPunct(token)
		if trimmed == "" {
			flush()
			continue
		}

		first := []rune(trimmed)[0]
		switch {
		case unicode.IsUpper(first):
			// Capitalized Latin tokens join into multi-word names
			run = append(run, trimmed)
		case unicode.Is(unicode.Hangul, first):
			flush()
			add(trimmed)
		default:
			flush()
		}
	}
	flush()

	return names
}

func trimPunct(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// Korean particles commonly attached to entity names, longest first
var particles = []string{"에게서", "으로", "에게", "에서", "부터", "까지", "의", "을", "를", "이", "가", "은", "는", "와", "과", "도", "만", "로"}

// stripParticle removes one trailing particle from a Hangul token so that
// "카엘의" also resolves as "카엘". Stripping never shortens a token below
// two runes.
func stripParticle(token string) string {
	for _, particle := range particles {
		stripped, found := strings.CutSuffix(token, particle)
		if found && len([]rune(stripped)) >= 2 {
			return stripped
		}
	}
	return token
}
