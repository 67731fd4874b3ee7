// Package recommend turns a resume, and optionally a job description, into a
// skill gap report with learning paths, project ideas and a roadmap graph.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/graph"
	"github.com/careerguide/careerguide/internal/match"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/skills"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrNoGoal      = errors.New("please provide either a target role or a job description")
	ErrEmptyResume = errors.New("resume is empty or unreadable")

	// ErrUnknownRole is returned when the goal is not in the skill map
	ErrUnknownRole = skills.ErrUnknownRole
)

const (
	SummaryUnavailable         = "Resume summarization failed on every provider."
	RoleDescriptionUnavailable = "No description available at the moment."

	defaultAlternates   = 3
	defaultConcurrency  = 4
	defaultResumeTokens = 1000
)

// Generator is the content source used by the pipeline
type Generator interface {
	Generate(ctx context.Context, entity string, purpose content.Purpose) (*content.Payload, error)
	Complete(ctx context.Context, req content.Request) (string, error)
}

// Input is one analysis request
type Input struct {
	ResumeText string
	JDText     string
	Goal       string
}

// LearningStep is the learning path for one skill
type LearningStep struct {
	Skill string   `json:"skill"`
	Steps []string `json:"steps"`
}

// AlternateRole is a role similar to the candidate's profile
type AlternateRole struct {
	Role        string  `json:"role"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Report is the full analysis result
type Report struct {
	Goal              string              `json:"goal"`
	MatchedSkills     []string            `json:"matched_skills"`
	MissingSkills     []string            `json:"missing_skills"`
	OptionalMissing   []string            `json:"optional_missing"`
	RecommendedSkills []string            `json:"recommended_skills"`
	LearningPath      []LearningStep      `json:"learning_path"`
	ProjectIdeas      map[string][]string `json:"project_ideas"`
	FitScore          int                 `json:"fit_score"`
	Graph             graph.Graph         `json:"graph"`
	JobSkills         []string            `json:"job_skills"`
	JDSimilarity      *float64            `json:"jd_similarity,omitempty"`
	NERResults        skills.Entities     `json:"ner_results"`
	ResumeSummary     string              `json:"resume_summary"`
	AlternateRoles    []AlternateRole     `json:"alternate_roles"`
	Name              []string            `json:"name"`
	Education         []string            `json:"education"`
	Certifications    []string            `json:"certifications"`
}

// Options tunes a Pipeline
type Options struct {
	// Concurrency bounds parallel generator calls per stage
	Concurrency int

	// ResumeTokens caps the resume text sent for summarization
	ResumeTokens int

	// Alternates is the number of alternate roles suggested
	Alternates int

	Logger *slog.Logger
}

// Pipeline runs the recommendation flow
type Pipeline struct {
	gen       Generator
	prompts   *prompt.Builder
	skillMap  skills.SkillMap
	extractor *skills.Extractor
	matcher   *match.Matcher
	opts      Options
	logger    *slog.Logger
}

// New creates a pipeline over a skill map
func New(gen Generator, prompts *prompt.Builder, skillMap skills.SkillMap, matcher *match.Matcher, opts Options) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.ResumeTokens < 1 {
		opts.ResumeTokens = defaultResumeTokens
	}
	if opts.Alternates < 1 {
		opts.Alternates = defaultAlternates
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if matcher == nil {
		matcher = match.NewMatcher(nil)
	}
	if prompts == nil {
		prompts = prompt.NewBuilder(0)
	}

	return &Pipeline{
		gen:       gen,
		prompts:   prompts,
		skillMap:  skillMap,
		extractor: skills.NewExtractor(skillMap.Vocabulary()),
		matcher:   matcher,
		opts:      opts,
		logger:    logger,
	}
}

// Run analyzes a resume against a goal role, detecting the goal from the job
// description when none is given. Missing generated content leaves gaps in
// the report rather than failing it.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Report, error) {
	if strings.TrimSpace(in.ResumeText) == "" {
		return nil, ErrEmptyResume
	}

	goal := strings.TrimSpace(in.Goal)
	hasJD := strings.TrimSpace(in.JDText) != ""
	if goal == "" && !hasJD {
		return nil, ErrNoGoal
	}

	summary := p.summarize(ctx, in.ResumeText)

	if goal == "" {
		p.logger.Info("no role provided, detecting role from job description")
		detected, err := p.matcher.DetectRole(ctx, in.JDText, p.skillMap.Roles())
		if err != nil {
			return nil, fmt.Errorf("failed to detect role: %w", err)
		}
		goal = detected
	}

	roleName, role, err := p.skillMap.Lookup(goal)
	if err != nil {
		return nil, err
	}

	var jdSkills []string
	if hasJD {
		jdSkills = p.extractor.SkillsOf(in.JDText)
	}

	entities := p.extractor.Extract(in.ResumeText)
	have := skills.NormalizeAll(entities.Skills)
	optional := skills.NormalizeAll(role.Optional)
	required := skills.NormalizeAll(append(append(append([]string{}, role.MustHave...), role.Optional...), jdSkills...))

	missing := skills.Difference(required, have)
	optionalMissing := skills.Difference(optional, have)

	report := &Report{
		Goal:              roleName,
		MatchedSkills:     skills.Intersection(have, required),
		MissingSkills:     missing,
		OptionalMissing:   optionalMissing,
		RecommendedSkills: skills.Union(skills.NormalizeAll(missing), skills.NormalizeAll(optionalMissing)),
		ProjectIdeas:      map[string][]string{},
		FitScore:          skills.FitScore(entities.Skills, role.MustHave),
		JobSkills:         jdSkills,
		NERResults:        entities,
		ResumeSummary:     summary,
		Name:              nonNil(entities.Name),
		Education:         entities.Education,
		Certifications:    entities.Certifications,
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		report.LearningPath, report.ProjectIdeas = p.learningContent(ctx, report.RecommendedSkills)
	})
	wg.Go(func() {
		report.Graph = graph.Build(ctx, p.gen, report.MatchedSkills, report.MissingSkills, graph.Options{
			Concurrency: p.opts.Concurrency,
			Logger:      p.logger,
		})
	})
	wg.Go(func() {
		profile := summary
		if summary == SummaryUnavailable {
			profile = in.ResumeText
		}
		report.AlternateRoles = p.alternates(ctx, profile, roleName)
	})
	if hasJD {
		wg.Go(func() {
			score, err := p.matcher.Similarity(ctx, in.ResumeText, in.JDText)
			if err != nil {
				p.logger.Warn("failed to compare resume with job description", "error", err)
				return
			}
			report.JDSimilarity = &score
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) summarize(ctx context.Context, resume string) string {
	req := p.prompts.Summary(prompt.TruncateTokens(resume, p.opts.ResumeTokens))
	summary, err := p.gen.Complete(ctx, req)
	if err != nil {
		p.logger.Warn("resume summarization failed", "error", err)
		return SummaryUnavailable
	}
	return summary
}

func (p *Pipeline) learningContent(ctx context.Context, recommended []string) ([]LearningStep, map[string][]string) {
	payloads := make([]*content.Payload, len(recommended))

	workers := pool.New().WithMaxGoroutines(p.opts.Concurrency)
	for i, skill := range recommended {
		workers.Go(func() {
			p.logger.Info("generating learning path and project ideas", "skill", skill)
			payload, err := p.gen.Generate(ctx, skill, content.LearningAndProjects)
			if err != nil {
				p.logger.Warn("no learning content for skill", "skill", skill, "error", err)
				return
			}
			payloads[i] = payload
		})
	}
	workers.Wait()

	path := []LearningStep{}
	ideas := map[string][]string{}
	for i, skill := range recommended {
		payload := payloads[i]
		if payload == nil {
			continue
		}
		if len(payload.LearningPath) > 0 {
			path = append(path, LearningStep{Skill: skill, Steps: payload.LearningPath})
		}
		if len(payload.ProjectIdeas) > 0 {
			ideas[skill] = payload.ProjectIdeas
		}
	}
	return path, ideas
}

func (p *Pipeline) alternates(ctx context.Context, profile, current string) []AlternateRole {
	ranked, err := p.matcher.Alternates(ctx, profile, current, p.skillMap.Roles(), p.opts.Alternates)
	if err != nil {
		p.logger.Warn("failed to rank alternate roles", "error", err)
		return []AlternateRole{}
	}

	out := make([]AlternateRole, len(ranked))
	workers := pool.New().WithMaxGoroutines(p.opts.Concurrency)
	for i, alt := range ranked {
		workers.Go(func() {
			out[i] = AlternateRole{
				Role:        alt.Role,
				Score:       alt.Score,
				Description: p.roleDescription(ctx, alt.Role),
			}
		})
	}
	workers.Wait()
	return out
}

func (p *Pipeline) roleDescription(ctx context.Context, role string) string {
	payload, err := p.gen.Generate(ctx, role, content.RoleDescription)
	if err != nil || strings.TrimSpace(payload.Description) == "" {
		p.logger.Debug("no description for role", "role", role, "error", err)
		return RoleDescriptionUnavailable
	}
	return payload.Description
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
