// Package skills loads the role taxonomy, extracts skills and other entities
// from resume text, and compares them against a role's requirements.
package skills

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownRole is returned when a role is not present in the skill map
var ErrUnknownRole = errors.New("role not found in skill map")

// Role lists the skills a role requires
type Role struct {
	MustHave []string `json:"must_have" yaml:"must_have"`
	Optional []string `json:"optional" yaml:"optional"`
}

// SkillMap maps role names to their skill requirements
type SkillMap map[string]Role

// LoadSkillMap reads a skill map from a .json, .yaml or .yml file
func LoadSkillMap(path string) (SkillMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skill map: %w", err)
	}

	m := SkillMap{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse skill map %s: %w", path, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("skill map %s defines no roles", path)
	}
	return m, nil
}

// Roles returns the role names in sorted order
func (m SkillMap) Roles() []string {
	roles := make([]string, 0, len(m))
	for name := range m {
		roles = append(roles, name)
	}
	sort.Strings(roles)
	return roles
}

// Lookup finds a role by exact name, then case-insensitively
func (m SkillMap) Lookup(name string) (string, Role, error) {
	if r, ok := m[name]; ok {
		return name, r, nil
	}
	want := strings.TrimSpace(name)
	for role, r := range m {
		if strings.EqualFold(role, want) {
			return role, r, nil
		}
	}
	return "", Role{}, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Vocabulary returns every distinct normalized skill named by any role
func (m SkillMap) Vocabulary() []string {
	set := make(map[string]struct{})
	for _, r := range m {
		for _, s := range r.MustHave {
			set[Normalize(s)] = struct{}{}
		}
		for _, s := range r.Optional {
			set[Normalize(s)] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// DefaultSkillMap is a small built-in taxonomy used when no map is configured
func DefaultSkillMap() SkillMap {
	return SkillMap{
		"Backend Developer": {
			MustHave: []string{"go", "sql", "rest api", "docker", "git"},
			Optional: []string{"kubernetes", "redis", "postgresql", "grpc"},
		},
		"Frontend Developer": {
			MustHave: []string{"html", "css", "javascript", "react", "git"},
			Optional: []string{"typescript", "next.js", "tailwind css", "figma"},
		},
		"Data Analyst": {
			MustHave: []string{"sql", "excel", "python", "statistics", "tableau"},
			Optional: []string{"power bi", "pandas", "r"},
		},
		"DevOps Engineer": {
			MustHave: []string{"linux", "docker", "kubernetes", "ci/cd", "terraform"},
			Optional: []string{"aws", "ansible", "prometheus", "go"},
		},
		"Machine Learning Engineer": {
			MustHave: []string{"python", "machine learning", "pytorch", "statistics", "sql"},
			Optional: []string{"tensorflow", "docker", "mlops", "pandas"},
		},
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
