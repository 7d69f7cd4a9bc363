// Package markdown parses game design documents written with the fixed
// heading conventions of this project and extracts typed records from them.
// It is deliberately not a general-purpose markdown parser: only the heading
// levels, field labels and bullet lists used by the document templates are
// recognized.
package markdown

import (
	"regexp"
	"strings"
)

// Section is one node of the heading tree produced by Parse. Body holds the
// text between the heading and the next heading of any level; Children holds
// the nested sections of lower heading levels.
type Section struct {
	Level    int
	Heading  string
	Body     string
	Children []*Section
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Parse tokenizes markdown into a tree of sections. A section extends until
// the next heading of equal-or-higher level or the end of the document.
// Text before the first heading is dropped. Parse never fails: a document
// without headings simply yields no sections.
func Parse(text string) []*Section {
	var roots []*Section
	var stack []*Section
	var current *Section
	var body []string

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		match := headingPattern.FindStringSubmatch(line)
		if match == nil {
			if current != nil {
				body = append(body, line)
			}
			continue
		}

		flush()

		section := &Section{
			Level:   len(match[1]),
			Heading: strings.TrimSpace(match[2]),
		}

		// Pop the stack until the parent has a higher heading level
		for len(stack) > 0 && stack[len(stack)-1].Level >= section.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, section)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, section)
		}

		stack = append(stack, section)
		current = section
	}

	flush()

	return roots
}

// Find returns the first section in the tree whose heading equals one of the
// given headings. Missing sections yield nil, never an error.
func Find(sections []*Section, headings ...string) *Section {
	for _, section := range sections {
		for _, heading := range headings {
			if section.Heading == heading {
				return section
			}
		}
		if found := Find(section.Children, headings...); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every section in the tree in document order
func Walk(sections []*Section, visit func(*Section)) {
	for _, section := range sections {
		visit(section)
		Walk(section.Children, visit)
	}
}

// Text returns the section body followed by the text of all child sections,
// reassembled in document order. Used when a coarse section must be scanned
// as one block, e.g. the storyline fallback for missing chapter overviews.
func (s *Section) Text() string {
	if s == nil {
		return ""
	}
	parts := []string{s.Body}
	for _, child := range s.Children {
		parts = append(parts, strings.Repeat("#", child.Level)+" "+child.Heading, child.Text())
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
