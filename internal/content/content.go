// Package content defines the vocabulary shared by the generation core:
// what kind of content is requested for an entity and the structured
// payload produced from a provider's raw text.
package content

import (
	"fmt"
	"strings"
)

// Purpose identifies the kind of content requested for an entity
type Purpose string

const (
	LearningPath        Purpose = "learning_path"
	ProjectIdeas        Purpose = "project_ideas"
	Prerequisites       Purpose = "prerequisites"
	Description         Purpose = "description"
	LearningAndProjects Purpose = "learning_and_projects"
	RoleDescription     Purpose = "role_description"
)

// Purposes lists every supported purpose in a stable order
var Purposes = []Purpose{
	LearningPath,
	ProjectIdeas,
	Prerequisites,
	Description,
	LearningAndProjects,
	RoleDescription,
}

// ParsePurpose converts a user-supplied tag into a Purpose
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown purpose %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported purposes
func (p Purpose) Valid() bool {
	for _, known := range Purposes {
		if p == known {
			return true
		}
	}
	return false
}

// IsText reports whether the purpose produces a single string rather than a list
func (p Purpose) IsText() bool {
	return p == Description || p == RoleDescription
}

func (p Purpose) String() string {
	return string(p)
}

// Payload is the structured result for one (entity, purpose) pair.
// Only the fields relevant to the purpose are populated.
type Payload struct {
	Entity        string   `json:"entity"`
	LearningPath  []string `json:"learning_path,omitempty"`
	ProjectIdeas  []string `json:"project_ideas,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// Empty reports whether the payload carries no usable content
func (p *Payload) Empty() bool {
	if p == nil {
		return true
	}
	return len(p.LearningPath) == 0 &&
		len(p.ProjectIdeas) == 0 &&
		len(p.Prerequisites) == 0 &&
		strings.TrimSpace(p.Description) == ""
}

// Request is a single generation request. It is built per call and never persisted.
type Request struct {
	Entity       string
	Purpose      Purpose
	SystemPrompt string
	Prompt       string
	MaxTokens    int // 0 = provider default
}
