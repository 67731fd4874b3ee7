package skills

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entities are the named entities found in a document
type Entities struct {
	Skills         []string `json:"detected_skills"`
	Certifications []string `json:"certifications"`
	Education      []string `json:"education"`
	Name           []string `json:"name"`
}

var (
	skillLine     = regexp.MustCompile(`(?i)(Programming|Skills|Technologies)[^\n:]*[:\-]\s*(.+)`)
	educationLine = regexp.MustCompile(`(?i)\b(bachelor|master|b\.?tech|m\.?tech|b\.?sc|m\.?sc|b\.?e\.|ph\.?d|diploma|university|college|institute)\b`)
	certLine      = regexp.MustCompile(`(?i)\b(certified|certification|certificate)\b`)
	nameWord      = regexp.MustCompile(`^\p{Lu}[\p{L}'\-]*\.?$`)
)

var stopEntities = map[string]bool{"skills": true, "objective": true, "summary": true}

const maxEntityLine = 120

// Extractor finds skills by matching a known vocabulary and labelled
// "Skills:" style lines, plus education, certification and name heuristics
type Extractor struct {
	terms map[string]string // search term -> canonical skill
}

// NewExtractor creates an extractor that recognizes vocabulary and every alias
func NewExtractor(vocabulary []string) *Extractor {
	terms := make(map[string]string, len(vocabulary)+len(Aliases))
	for _, v := range vocabulary {
		n := Normalize(v)
		if len(n) >= 2 {
			terms[n] = n
		}
	}
	for alias, canonical := range Aliases {
		if len(alias) >= 2 {
			terms[alias] = canonical
		}
	}
	return &Extractor{terms: terms}
}

// Extract returns sorted, de-duplicated entities found in text
func (e *Extractor) Extract(text string) Entities {
	lower := strings.ToLower(text)

	found := make(map[string]struct{})
	for term, canonical := range e.terms {
		if containsTerm(lower, term) {
			found[canonical] = struct{}{}
		}
	}

	for _, m := range skillLine.FindAllStringSubmatch(text, -1) {
		for _, item := range strings.Split(m[2], ",") {
			item = cleanEntity(item)
			if validEntity(item) {
				found[Normalize(item)] = struct{}{}
			}
		}
	}

	education := make(map[string]struct{})
	certs := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = cleanEntity(line)
		if !validEntity(line) || len(line) > maxEntityLine {
			continue
		}
		if educationLine.MatchString(line) {
			education[line] = struct{}{}
		}
		if certLine.MatchString(line) {
			certs[line] = struct{}{}
		}
	}

	var names []string
	if name := guessName(text); name != "" {
		names = []string{name}
	}

	return Entities{
		Skills:         sortedKeys(found),
		Certifications: sortedKeys(certs),
		Education:      sortedKeys(education),
		Name:           names,
	}
}

// SkillsOf is a convenience for callers that only need the skill list
func (e *Extractor) SkillsOf(text string) []string {
	return e.Extract(text).Skills
}

// guessName treats a short first line of capitalized words as the candidate name
func guessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			return ""
		}
		for _, w := range words {
			if !nameWord.MatchString(w) {
				return ""
			}
		}
		return line
	}
	return ""
}

func cleanEntity(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.Trim(strings.TrimSpace(s), "•-:,. ")
}

func validEntity(s string) bool {
	if len(s) < 2 || stopEntities[strings.ToLower(s)] {
		return false
	}
	hasDigit := strings.IndexFunc(s, unicode.IsDigit) >= 0
	if hasDigit && (isAllDigits(s) || len(s) <= 5) {
		return false
	}
	return true
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// containsTerm reports whether term occurs in text as a whole word
func containsTerm(text, term string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

func boundaryBefore(text string, start int) bool {
	if start == 0 {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(text[:start])
	if r == '.' {
		prev, _ := utf8.DecodeLastRuneInString(text[:start-size])
		return !unicode.IsLetter(prev)
	}
	return !isWordRune(r)
}

func boundaryAfter(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	r, size := utf8.DecodeRuneInString(text[end:])
	if r == '.' {
		// "node" inside "node.js" is not a match; "go." at a sentence end is
		next, _ := utf8.DecodeRuneInString(text[end+size:])
		return !unicode.IsLetter(next)
	}
	return !isWordRune(r)
}
