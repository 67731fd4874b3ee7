package skills

import (
	"math"
	"strings"
)

// Aliases maps common spellings to a canonical skill name
var Aliases = map[string]string{
	"react.js":    "react",
	"reactjs":     "react",
	"postgres":    "postgresql",
	"js":          "javascript",
	"html5":       "html",
	"css3":        "css",
	"node":        "node.js",
	"nodejs":      "node.js",
	"golang":      "go",
	"k8s":         "kubernetes",
	"vs code":     "visual studio code",
	"vscode":      "visual studio code",
	"ml":          "machine learning",
	"ci cd":       "ci/cd",
	"restful api": "rest api",
}

// Normalize lowercases, trims and resolves aliases
func Normalize(skill string) string {
	s := strings.ToLower(strings.Join(strings.Fields(skill), " "))
	if canonical, ok := Aliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeAll normalizes and de-duplicates skills into a set
func NormalizeAll(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		if n := Normalize(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// FitScore returns the percentage of must-have skills covered, rounded
func FitScore(resumeSkills, mustHave []string) int {
	required := NormalizeAll(mustHave)
	if len(required) == 0 {
		return 0
	}
	have := NormalizeAll(resumeSkills)

	matched := 0
	for s := range required {
		if _, ok := have[s]; ok {
			matched++
		}
	}
	return int(math.Round(float64(matched) / float64(len(required)) * 100))
}

// GapReport lists where a resume stands against a role
type GapReport struct {
	Missing         []string `json:"missing_skills"`
	OptionalMissing []string `json:"optional_missing"`
	Covered         []string `json:"covered"`
}

// Gaps compares resume skills against must-have and optional requirements
func Gaps(resumeSkills, mustHave, optional []string) GapReport {
	have := NormalizeAll(resumeSkills)
	return GapReport{
		Missing:         Difference(NormalizeAll(mustHave), have),
		OptionalMissing: Difference(NormalizeAll(optional), have),
		Covered:         Intersection(have, NormalizeAll(mustHave)),
	}
}

// Difference returns the sorted elements of a not present in b
func Difference(a, b map[string]struct{}) []string {
	out := make(map[string]struct{})
	for s := range a {
		if _, ok := b[s]; !ok {
			out[s] = struct{}{}
		}
	}
	return sortedKeys(out)
}

// Intersection returns the sorted elements present in both a and b
func Intersection(a, b map[string]struct{}) []string {
	out := make(map[string]struct{})
	for s := range a {
		if _, ok := b[s]; ok {
			out[s] = struct{}{}
		}
	}
	return sortedKeys(out)
}

// Union returns the sorted elements of every set
func Union(sets ...map[string]struct{}) []string {
	out := make(map[string]struct{})
	for _, set := range sets {
		for s := range set {
			out[s] = struct{}{}
		}
	}
	return sortedKeys(out)
}
