package retrieval

import (
	"fmt"
	"strings"

	"github.com/loremaker/loregraph/model"
)

// FormatContext renders a retrieved context as the natural-language block
// embedded into LLM prompts. Relationships use the Korean relation phrases,
// not the edge type constants.
func FormatContext(context *Context) string {
	if context == nil || context.IsEmpty() {
		return ""
	}

	var b strings.Builder

	if len(context.Characters) > 0 {
		b.WriteString("[캐릭터]\n")
		for _, character := range context.Characters {
			b.WriteString("- " + character.Name)
			if role := character.Properties.String("role"); role != "" {
				b.WriteString(" (역할: " + role + ")")
			}
			if background := character.Properties.String("background"); background != "" {
				b.WriteString(": " + background)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(context.Relationships) > 0 {
		b.WriteString("[관계]\n")
		for _, relation := range context.Relationships {
			fmt.Fprintf(&b, "- %s → %s: %s\n", relation.Source, relation.Target, model.RelationPhrase(relation.Type))
		}
		b.WriteString("\n")
	}

	if len(context.Locations) > 0 {
		b.WriteString("[위치]\n")
		for _, location := range context.Locations {
			b.WriteString("- " + location.Name)
			if locationType := location.Properties.String("type"); locationType != "" {
				b.WriteString(" (유형: " + locationType + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(context.Chapters) > 0 {
		b.WriteString("[챕터]\n")
		for _, chapter := range context.Chapters {
			b.WriteString("- ")
			if chapter.Number != nil {
				fmt.Fprintf(&b, "챕터 %d: ", *chapter.Number)
			}
			b.WriteString(chapter.Name)
			if description := chapter.Properties.String("description"); description != "" {
				b.WriteString(" - " + description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for _, matched := range context.Matched {
		fmt.Fprintf(&b, "[%s: %s]\n", matched.Node.Label, matched.Node.Name)
		for _, neighbor := range matched.Neighbors {
			phrase := string(neighbor.EdgeType)
			if model.IsRelation(neighbor.EdgeType) {
				phrase = model.RelationPhrase(neighbor.EdgeType)
			}
			if neighbor.Direction == "in" {
				fmt.Fprintf(&b, "- %s ← %s (%s)\n", matched.Node.Name, neighbor.Node.Name, phrase)
			} else {
				fmt.Fprintf(&b, "- %s → %s (%s)\n", matched.Node.Name, neighbor.Node.Name, phrase)
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatNeighbors renders a single neighborhood, used for chapter-scoped
// prompts where the full context block would be noise
func FormatNeighbors(name string, neighbors []*model.Neighbor) string {
	if len(neighbors) == 0 {
		return ""
	}

	var b strings.Builder
	byType := map[model.EdgeType][]string{}
	var order []model.EdgeType
	for _, neighbor := range neighbors {
		if _, ok := byType[neighbor.EdgeType]; !ok {
			order = append(order, neighbor.EdgeType)
		}
		byType[neighbor.EdgeType] = append(byType[neighbor.EdgeType], neighbor.Node.Name)
	}

	fmt.Fprintf(&b, "[%s]\n", name)
	for _, edgeType := range order {
		fmt.Fprintf(&b, "- %s: %s\n", edgeType, strings.Join(byType[edgeType], ", "))
	}
	return b.String()
}
