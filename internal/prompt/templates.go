package prompt

import (
	"fmt"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
)

const (
	// CareerGuideSystemPrompt frames learning and project generation
	CareerGuideSystemPrompt = "You are an expert career guide AI."

	// SkillSystemPrompt frames skill descriptions and prerequisites
	SkillSystemPrompt = "You describe technical skills briefly and list prerequisite technologies."

	// RoleSystemPrompt frames job role descriptions
	RoleSystemPrompt = "You are an AI that describes job roles professionally."

	// SummarySystemPrompt is used to summarize a resume
	SummarySystemPrompt = `You are an AI resume summarizer. Write a professional and detailed summary of the candidate's resume in 4-6 sentences. Highlight their skills, technologies, education, experience, notable projects, and work ethic. Use a confident tone.`

	learningAndProjectsTemplate = `Skill: %s

Provide a clear 3-step learning path and 3 realistic project ideas.

Format:
Learning Path:
- Step 1...
- Step 2...
- Step 3...

Project Ideas:
- Idea 1...
- Idea 2...
- Idea 3...`

	learningPathTemplate = `Skill: %s

Provide a clear 3-step learning path. Return only the steps as a bulleted list, one per line.`

	projectIdeasTemplate = `Skill: %s

Provide 3 realistic project ideas that practice this skill. Return only the ideas as a bulleted list, one per line.`

	prerequisitesTemplate = `What are 2-3 prerequisite skills or technologies required to learn %s? Return only a comma-separated list.`

	descriptionTemplate = `Give a short 1-2 sentence professional description of the skill: %s`

	roleDescriptionTemplate = `Give a short, 2-3 sentence professional description of the job role: %s`

	summaryTemplate = "Resume text:\n%s"
)

// Builder constructs generation prompts for an entity and purpose
type Builder struct {
	maxTokens int
}

// NewBuilder creates a new prompt builder. maxTokens is passed through as the
// max-output hint on every request (0 = provider default).
func NewBuilder(maxTokens int) *Builder {
	return &Builder{maxTokens: maxTokens}
}

// Build returns the generation request for (entity, purpose)
func (b *Builder) Build(entity string, purpose content.Purpose) (content.Request, error) {
	entity = strings.TrimSpace(entity)

	var system, tmpl string
	switch purpose {
	case content.LearningAndProjects:
		system, tmpl = CareerGuideSystemPrompt, learningAndProjectsTemplate
	case content.LearningPath:
		system, tmpl = CareerGuideSystemPrompt, learningPathTemplate
	case content.ProjectIdeas:
		system, tmpl = CareerGuideSystemPrompt, projectIdeasTemplate
	case content.Prerequisites:
		system, tmpl = SkillSystemPrompt, prerequisitesTemplate
	case content.Description:
		system, tmpl = SkillSystemPrompt, descriptionTemplate
	case content.RoleDescription:
		system, tmpl = RoleSystemPrompt, roleDescriptionTemplate
	default:
		return content.Request{}, fmt.Errorf("no prompt template for purpose %q", purpose)
	}

	return content.Request{
		Entity:       entity,
		Purpose:      purpose,
		SystemPrompt: system,
		Prompt:       fmt.Sprintf(tmpl, entity),
		MaxTokens:    b.maxTokens,
	}, nil
}

// Summary returns the request used to summarize resume text.
// The text should already be bounded with TruncateTokens.
func (b *Builder) Summary(resumeText string) content.Request {
	return content.Request{
		Entity:       "resume",
		SystemPrompt: SummarySystemPrompt,
		Prompt:       fmt.Sprintf(summaryTemplate, resumeText),
		MaxTokens:    b.maxTokens,
	}
}
