// Package parser turns free-form generated text into structured payloads
// using line-oriented heuristics.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/careerguide/careerguide/internal/content"
)

// ErrNothingParsed is returned when the text contains no usable content
var ErrNothingParsed = errors.New("no usable content in response")

const maxItems = 3

// Rule bounds the list items accepted for a list-shaped purpose
type Rule struct {
	MinLength int // items shorter than this (in runes) are discarded
	MaxItems  int
}

// Rules maps list-shaped purposes to their item rules
var Rules = map[content.Purpose]Rule{
	content.LearningPath:        {MinLength: 5, MaxItems: maxItems},
	content.ProjectIdeas:        {MinLength: 5, MaxItems: maxItems},
	content.LearningAndProjects: {MinLength: 5, MaxItems: maxItems},
	content.Prerequisites:       {MinLength: 1, MaxItems: maxItems},
}

var (
	fenceOpen   = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*\\n")
	fenceClose  = regexp.MustCompile("(?m)\\n?```\\s*$")
	listMarker  = regexp.MustCompile(`^(?:[-•+]\s*|\*\s+|\d+[.)]\s*)`)
	boldSpan    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	conjunction = regexp.MustCompile(`(?i)^(?:and|or)\s+`)
)

type section int

const (
	sectionNone section = iota
	sectionLearning
	sectionProjects
)

// Parse extracts the payload for purpose from raw provider text
func Parse(raw string, purpose content.Purpose) (*content.Payload, error) {
	text := stripMarkdownCodeBlocks(raw)

	payload := &content.Payload{}
	switch purpose {
	case content.Description, content.RoleDescription:
		payload.Description = text
	case content.LearningPath:
		payload.LearningPath = listItems(text, Rules[purpose])
	case content.ProjectIdeas:
		payload.ProjectIdeas = listItems(text, Rules[purpose])
	case content.Prerequisites:
		payload.Prerequisites = parsePrerequisites(text)
	case content.LearningAndProjects:
		payload.LearningPath, payload.ProjectIdeas = parseSections(text, Rules[purpose])
	default:
		return nil, fmt.Errorf("unknown purpose %q", purpose)
	}

	if payload.Empty() {
		return nil, fmt.Errorf("%w for %s", ErrNothingParsed, purpose)
	}
	return payload, nil
}

// ListItem reports whether line is a bulleted or numbered item and returns
// its text without the marker
func ListItem(line string) (string, bool) {
	line = strings.TrimSpace(line)
	loc := listMarker.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	item := strings.TrimSpace(line[loc[1]:])
	item = boldSpan.ReplaceAllString(item, "$1")
	return item, true
}

func listItems(text string, rule Rule) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		item, ok := ListItem(line)
		if !ok {
			continue
		}
		items = appendItem(items, item, rule)
	}
	return items
}

// parseSections routes list items to the section named by the most recent
// label line. Items before any label are ignored.
func parseSections(text string, rule Rule) (learning, projects []string) {
	current := sectionNone
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s := labelOf(line); s != sectionNone {
			current = s
			continue
		}
		item, ok := ListItem(line)
		if !ok {
			continue
		}
		switch current {
		case sectionLearning:
			learning = appendItem(learning, item, rule)
		case sectionProjects:
			projects = appendItem(projects, item, rule)
		}
	}
	return learning, projects
}

func labelOf(line string) section {
	s := strings.TrimLeft(line, "# ")
	s = strings.TrimPrefix(s, "**")
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "learning path"):
		return sectionLearning
	case strings.HasPrefix(s, "project ideas"):
		return sectionProjects
	}
	return sectionNone
}

// parsePrerequisites accepts either list items or a comma-separated line
func parsePrerequisites(text string) []string {
	rule := Rules[content.Prerequisites]
	if items := listItems(text, rule); len(items) > 0 {
		return items
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			part = strings.TrimSuffix(part, ".")
			part = conjunction.ReplaceAllString(part, "")
			items = appendItem(items, part, rule)
		}
	}
	return items
}

func appendItem(items []string, item string, rule Rule) []string {
	if len(items) >= rule.MaxItems {
		return items
	}
	if len([]rune(item)) < rule.MinLength || !strings.ContainsFunc(item, isAlnum) {
		return items
	}
	return append(items, item)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// stripMarkdownCodeBlocks removes markdown code fences around the text
func stripMarkdownCodeBlocks(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
