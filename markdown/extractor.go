package markdown

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/loremaker/loregraph/model"
)

// Section headings and field labels recognized by the extractor. The Korean
// strings are the canonical document template; the English variants keep
// older documents readable.
var (
	headingStoryline       = []string{"스토리라인", "Storyline"}
	headingChapterOverview = []string{"챕터 개요", "Chapter Overview"}
	headingChapterDetails  = []string{"챕터 상세 내용", "Chapter Details"}

	labelGoals      = []string{"**목표:**", "**Goals:**"}
	labelLocations  = []string{"**주요 위치:**", "**Key Locations:**"}
	labelEvents     = []string{"**주요 사건:**", "**Key Events:**"}
	labelChallenges = []string{"**도전 과제:**", "**Challenges:**"}

	labelRole       = []string{"**역할:**", "**Role:**"}
	labelBackground = []string{"**배경:**", "**Background:**"}
)

var (
	chapterHeadingPattern = regexp.MustCompile(`^(?:챕터|Chapter)\s+(\d+):\s*(.+)$`)
	titlePattern          = regexp.MustCompile(`(?m)^# ([^\n]+)`)
	boldEventPrefix       = regexp.MustCompile(`^\*\*([^*]+)\*\*:\s*`)
)

// Extractor turns parsed design documents into typed records. Every
// operation returns a possibly-empty list; a missing section or pattern is
// logged at warning level and never raised as an error.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor creates an extractor logging parse misses to the given logger
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{log: logger}
}

// GameTitle extracts the top-level document title, defaulting to "Game"
func (e *Extractor) GameTitle(doc string) string {
	if match := titlePattern.FindStringSubmatch(doc); match != nil {
		return strings.TrimSpace(match[1])
	}
	return "Game"
}

// Chapters extracts chapter records from the overview and details sections.
// Chapters are matched across the two sections by (number, title). A
// duplicate chapter number is a data error, the first-parsed chapter wins
// and the rest are dropped with a warning. Output is sorted by number.
func (e *Extractor) Chapters(doc string) []model.ChapterRecord {
	tree := Parse(doc)

	overview := Find(tree, headingChapterOverview...)
	if overview == nil {
		// Fall back to scanning the whole storyline section
		overview = Find(tree, headingStoryline...)
	}
	if overview == nil {
		e.log.Warn("No chapter overview or storyline section found")
		return nil
	}

	details := Find(tree, headingChapterDetails...)

	var chapters []model.ChapterRecord
	seen := map[int]bool{}

	Walk([]*Section{overview}, func(s *Section) {
		match := chapterHeadingPattern.FindStringSubmatch(s.Heading)
		if match == nil {
			return
		}

		number, err := strconv.Atoi(match[1])
		if err != nil || number <= 0 {
			e.log.Warn("Skipping chapter with invalid number", slog.String("heading", s.Heading))
			return
		}
		title := strings.TrimSpace(match[2])

		// First-parsed chapter wins on a duplicate number
		if seen[number] {
			e.log.Warn("Dropping chapter with duplicate number", slog.Int("number", number), slog.String("title", title))
			return
		}
		seen[number] = true

		chapter := model.ChapterRecord{
			Number:      number,
			Title:       title,
			Description: firstLine(s.Body),
			Goals:       fieldList(s.Body, labelGoals),
			Locations:   fieldList(s.Body, labelLocations),
			Events:      fieldList(s.Body, labelEvents),
			Challenges:  fieldList(s.Body, labelChallenges),
			Details:     chapterDetails(details, number, title),
		}

		chapters = append(chapters, chapter)
	})

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Number < chapters[j].Number
	})

	return chapters
}

// chapterDetails finds the matching chapter in the details section and
// returns its free-text elaboration. Absence yields an empty string.
func chapterDetails(details *Section, number int, title string) string {
	if details == nil {
		return ""
	}

	var found string
	Walk([]*Section{details}, func(s *Section) {
		match := chapterHeadingPattern.FindStringSubmatch(s.Heading)
		if match == nil || found != "" {
			return
		}
		if n, err := strconv.Atoi(match[1]); err == nil && n == number && strings.TrimSpace(match[2]) == title {
			found = s.Text()
		}
	})

	return found
}

// Characters extracts character records. Two pattern families are tried in
// priority order: "inline" (role and background as the first bullet lines of
// the character block) and "separated" (role and background as labelled
// lines anywhere within the block). The first successful match per character
// name wins.
func (e *Extractor) Characters(doc string) []model.CharacterRecord {
	tree := Parse(doc)

	var characters []model.CharacterRecord
	seen := map[string]bool{}

	add := func(c model.CharacterRecord) {
		if c.Name == "" || seen[c.Name] {
			return
		}
		seen[c.Name] = true
		characters = append(characters, c)
	}

	// Inline family first
	Walk(tree, func(s *Section) {
		if s.Level != 4 {
			return
		}
		if c, ok := inlineCharacter(s); ok {
			add(c)
		}
	})

	// Separated family for anything the inline pass missed
	Walk(tree, func(s *Section) {
		if s.Level != 4 {
			return
		}
		if c, ok := separatedCharacter(s); ok {
			add(c)
		}
	})

	if len(characters) == 0 {
		e.log.Warn("No character blocks matched either pattern family")
	}

	return characters
}

// inlineCharacter matches a block whose first two content lines are the
// role and background bullets
func inlineCharacter(s *Section) (model.CharacterRecord, bool) {
	lines := contentLines(s.Body)
	if len(lines) < 2 {
		return model.CharacterRecord{}, false
	}

	role, okRole := labelledValue(lines[0], labelRole)
	background, okBackground := labelledValue(lines[1], labelBackground)
	if !okRole || !okBackground {
		return model.CharacterRecord{}, false
	}

	return model.CharacterRecord{
		Name:       s.Heading,
		Role:       role,
		Background: background,
	}, true
}

// separatedCharacter matches a block with role and background labels on any
// lines within the same heading block
func separatedCharacter(s *Section) (model.CharacterRecord, bool) {
	var role, background string

	for _, line := range contentLines(s.Body) {
		if v, ok := labelledValue(line, labelRole); ok && role == "" {
			role = v
		}
		if v, ok := labelledValue(line, labelBackground); ok && background == "" {
			background = v
		}
	}

	if role == "" || background == "" {
		return model.CharacterRecord{}, false
	}

	return model.CharacterRecord{
		Name:       s.Heading,
		Role:       role,
		Background: background,
	}, true
}

// fieldList extracts the bullet list following one of the given labels.
// A label with no following bullet lines yields an empty list.
func fieldList(body string, labels []string) []string {
	lines := strings.Split(body, "\n")

	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, label := range labels {
			if trimmed == label {
				start = i + 1
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil
	}

	var items []string
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "- ") {
			break
		}
		if item := strings.TrimSpace(strings.TrimPrefix(trimmed, "- ")); item != "" {
			items = append(items, item)
		}
	}

	return items
}

// CleanEventName strips a leading "**Bold**: " marker from an event bullet,
// keeping the full bullet text as the description
func CleanEventName(event string) string {
	return boldEventPrefix.ReplaceAllString(event, "")
}

// firstLine returns the first non-empty, non-label, non-bullet line of a body
func firstLine(body string) string {
	for _, line := range contentLines(body) {
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "**") {
			return ""
		}
		return line
	}
	return ""
}

// labelledValue matches lines of the form "- **Label:** value" or
// "**Label:** value" against the given label variants
func labelledValue(line string, labels []string) (string, bool) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
	for _, label := range labels {
		if strings.HasPrefix(trimmed, label) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, label)), true
		}
	}
	return "", false
}

// contentLines returns the trimmed non-empty lines of a body
func contentLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
