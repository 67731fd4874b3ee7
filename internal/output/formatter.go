package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/careerguide/careerguide/internal/cache"
	"github.com/careerguide/careerguide/internal/config"
	"github.com/careerguide/careerguide/internal/content"
	"github.com/careerguide/careerguide/internal/graph"
	"github.com/careerguide/careerguide/internal/recommend"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F780FF")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")).Italic(true)
	matchedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(graph.ColorMatched))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(graph.ColorMissing))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// WriteJSON writes v as indented JSON followed by a newline. Non-ASCII text is
// written as-is.
func WriteJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// FormatPayload renders generated content as plain text
func FormatPayload(p *content.Payload) string {
	var b strings.Builder
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render(title) + "\n")
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}

	section("Learning Path:", p.LearningPath)
	section("Project Ideas:", p.ProjectIdeas)
	section("Prerequisites:", p.Prerequisites)
	if p.Description != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Description + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatReport renders a recommendation report for the terminal
func FormatReport(r *recommend.Report) string {
	var b strings.Builder

	title := fmt.Sprintf("%s  ·  fit %d%%", r.Goal, r.FitScore)
	if len(r.Name) > 0 {
		title = r.Name[0] + "  →  " + title
	}
	b.WriteString(boxStyle.Render(headerStyle.Render(title)) + "\n\n")

	if r.ResumeSummary != "" {
		b.WriteString(labelStyle.Render("Summary") + "\n")
		b.WriteString(r.ResumeSummary + "\n\n")
	}

	b.WriteString(labelStyle.Render("Skills") + "\n")
	for _, s := range r.MatchedSkills {
		b.WriteString("  " + matchedStyle.Render("✓ "+s) + "\n")
	}
	for _, s := range r.MissingSkills {
		b.WriteString("  " + missingStyle.Render("✗ "+s) + "\n")
	}
	if r.JDSimilarity != nil {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  resume/job similarity %.2f%%", *r.JDSimilarity)) + "\n")
	}
	b.WriteString("\n")

	if len(r.LearningPath) > 0 {
		b.WriteString(labelStyle.Render("Learning Path") + "\n")
		for _, step := range r.LearningPath {
			b.WriteString("  " + headerStyle.Render(step.Skill) + "\n")
			for i, s := range step.Steps {
				fmt.Fprintf(&b, "    %d. %s\n", i+1, s)
			}
		}
		b.WriteString("\n")
	}

	if len(r.ProjectIdeas) > 0 {
		b.WriteString(labelStyle.Render("Project Ideas") + "\n")
		skills := make([]string, 0, len(r.ProjectIdeas))
		for s := range r.ProjectIdeas {
			skills = append(skills, s)
		}
		sort.Strings(skills)
		for _, s := range skills {
			b.WriteString("  " + headerStyle.Render(s) + "\n")
			for _, idea := range r.ProjectIdeas[s] {
				b.WriteString("    - " + idea + "\n")
			}
		}
		b.WriteString("\n")
	}

	if len(r.Graph.Edges) > 0 {
		b.WriteString(labelStyle.Render("Roadmap") + "\n")
		for _, e := range r.Graph.Edges {
			fmt.Fprintf(&b, "  %s → %s\n", e.From, e.To)
		}
		b.WriteString("\n")
	}

	if len(r.AlternateRoles) > 0 {
		b.WriteString(labelStyle.Render("Alternate Roles") + "\n")
		for _, alt := range r.AlternateRoles {
			fmt.Fprintf(&b, "  %s %s\n", alt.Role, mutedStyle.Render(fmt.Sprintf("(%.2f%%)", alt.Score)))
			if alt.Description != "" {
				b.WriteString("    " + alt.Description + "\n")
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatCacheStats renders cache statistics
func FormatCacheStats(stats *cache.Stats, dir string) string {
	var b strings.Builder
	b.WriteString("Cache Statistics:\n")
	fmt.Fprintf(&b, "  Total entries:    %d\n", stats.TotalEntries)
	fmt.Fprintf(&b, "  Entities:         %d\n", stats.TotalEntities)
	fmt.Fprintf(&b, "  Total size:       %.2f KB\n", float64(stats.TotalSizeBytes)/1024.0)
	if stats.OldestEntry != nil {
		fmt.Fprintf(&b, "  Oldest entry:     %s\n", stats.OldestEntry.Format("2006-01-02 15:04:05"))
	}
	if stats.NewestEntry != nil {
		fmt.Fprintf(&b, "  Newest entry:     %s\n", stats.NewestEntry.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "  Cache directory:  %s", dir)
	return b.String()
}

// ProviderStatus describes one provider for the providers command
type ProviderStatus struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Model    string `json:"model"`
	KeyEnv   string `json:"api_key_env,omitempty"`
	HasKey   bool   `json:"has_key"`
}

// ProviderStatuses lists providers in the given order with credential status
func ProviderStatuses(cfg *config.Config, order []string) []ProviderStatus {
	byName := make(map[string]config.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		byName[p.Name] = p
	}
	out := make([]ProviderStatus, 0, len(order))
	for i, name := range order {
		p := byName[name]
		out = append(out, ProviderStatus{
			Position: i + 1,
			Name:     p.Name,
			Kind:     p.Kind,
			Model:    p.Model,
			KeyEnv:   p.APIKeyEnv,
			HasKey:   !p.NeedsAPIKey() || p.APIKey() != "",
		})
	}
	return out
}

// FormatProviders renders provider statuses as a list
func FormatProviders(statuses []ProviderStatus) string {
	var b strings.Builder
	for _, s := range statuses {
		mark := matchedStyle.Render("✓")
		if !s.HasKey {
			mark = missingStyle.Render("✗ missing " + s.KeyEnv)
		}
		fmt.Fprintf(&b, "%d. %s (%s %s) %s\n", s.Position, s.Name, s.Kind, s.Model, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}
