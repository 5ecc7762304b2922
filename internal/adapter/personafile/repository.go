// Package personafile loads the persona catalog from a YAML file and
// ranks entries against task metadata.
package personafile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"conductor-ai/internal/domain"
)

// Repository is an immutable persona catalog loaded at startup.
type Repository struct {
	personas map[string]domain.Persona
}

type catalogFile struct {
	Personas []domain.Persona `yaml:"personas"`
}

// Load reads a persona catalog from path. Entries without a name are
// rejected; duplicate names keep the first entry.
func Load(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}

	personas := make(map[string]domain.Persona, len(file.Personas))
	for i, p := range file.Personas {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %d: missing name", i)
		}
		if _, dup := personas[p.Name]; dup {
			continue
		}
		personas[p.Name] = p
	}
	return &Repository{personas: personas}, nil
}

// FromPersonas builds a repository from an in-memory set, mainly for
// tests.
func FromPersonas(personas map[string]domain.Persona) *Repository {
	copied := make(map[string]domain.Persona, len(personas))
	for k, v := range personas {
		copied[k] = v
	}
	return &Repository{personas: copied}
}

// All returns a copy of the catalog.
func (r *Repository) All() map[string]domain.Persona {
	out := make(map[string]domain.Persona, len(r.personas))
	for k, v := range r.personas {
		out[k] = v
	}
	return out
}

// RankForTask scores every persona against the metadata and returns
// the topK positive scorers, best first, name order on equal scores.
func (r *Repository) RankForTask(meta domain.TaskMeta, topK int) []domain.RankedPersona {
	ranked := make([]domain.RankedPersona, 0, len(r.personas))
	for name, p := range r.personas {
		score := scorePersona(p, meta)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, domain.RankedPersona{Name: name, Persona: p, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

// scorePersona weighs skill overlap heaviest, then category, role and
// expertise alignment, with a small bonus for a style token appearing
// in the task description.
func scorePersona(p domain.Persona, meta domain.TaskMeta) float64 {
	var score float64

	want := make(map[string]struct{}, len(meta.Skills))
	for _, sk := range meta.Skills {
		want[strings.ToLower(sk)] = struct{}{}
	}
	for _, sk := range p.Skills {
		if _, ok := want[strings.ToLower(sk)]; ok {
			score += 2
		}
	}

	if meta.Category != "" && strings.EqualFold(p.Category, meta.Category) {
		score += 1.5
	}
	if meta.Role != "" && containsFold(p.Role, meta.Role) {
		score += 1
	}
	if meta.Expertise != "" && containsFold(p.Expertise, meta.Expertise) {
		score += 1
	}

	desc := strings.ToLower(meta.Description)
	if desc != "" {
		for _, tok := range p.Style {
			if tok != "" && strings.Contains(desc, strings.ToLower(tok)) {
				score += 0.5
				break
			}
		}
	}
	return score
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var _ domain.PersonaRepository = (*Repository)(nil)
