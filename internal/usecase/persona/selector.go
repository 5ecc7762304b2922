package persona

import (
	"log/slog"
	"sort"
	"strings"

	"conductor-ai/internal/domain"
)

// Selector picks personas for task metadata by intersecting a
// hierarchical attribute filter with the repository's relevance
// ranking. Selection never panics and never errors: when nothing
// fits, or the repository misbehaves, the result is nil.
// rankTopK bounds how deep the repository ranking is consulted before
// intersecting it with the filtered candidate set.
const rankTopK = 20

type Selector struct {
	repo   domain.PersonaRepository
	logger *slog.Logger
}

func NewSelector(repo domain.PersonaRepository, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{repo: repo, logger: logger.With("component", "persona_selector")}
}

// Select returns the best persona for the metadata, or nil.
func (s *Selector) Select(meta domain.TaskMeta) (sel *domain.Selection) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("persona selection panicked", "panic", r)
			sel = nil
		}
	}()
	if s.repo == nil {
		return nil
	}

	candidates, stages := s.filter(meta)
	if len(candidates) == 0 {
		return nil
	}

	pool := s.rankWithin(meta, rankTopK, candidates)
	if len(pool) == 0 {
		s.logger.Info("no persona survived ranking", "category", meta.Category, "role", meta.Role)
		return nil
	}

	winner := breakTies(pool, meta)
	return &domain.Selection{
		Name:    winner.Name,
		Persona: winner.Persona,
		Score:   winner.Score,
		Rationale: domain.SelectionRationale{
			Filters:   stages,
			Selected:  winner.Name,
			Score:     winner.Score,
			Category:  meta.Category,
			Role:      meta.Role,
			Expertise: meta.Expertise,
		},
	}
}

// SelectPair picks a writer and a distinct reviewer. The reviewer is
// empty when no second persona qualifies.
func (s *Selector) SelectPair(meta domain.TaskMeta) (pair domain.PersonaPair) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("persona pair selection panicked", "panic", r)
			pair = domain.PersonaPair{}
		}
	}()
	if s.repo == nil {
		return domain.PersonaPair{}
	}
	candidates, _ := s.filter(meta)
	pool := s.rankWithin(meta, rankTopK, candidates)
	if len(pool) == 0 {
		return domain.PersonaPair{}
	}
	pair.Writer = pool[0].Name
	for _, r := range pool[1:] {
		if r.Name != pair.Writer {
			pair.Reviewer = r.Name
			break
		}
	}
	return pair
}

// SelectCollaborators picks up to k distinct personas for a shared
// task, best first.
func (s *Selector) SelectCollaborators(meta domain.TaskMeta, k int) (names []string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("collaborator selection panicked", "panic", r)
			names = nil
		}
	}()
	if s.repo == nil || k <= 0 {
		return nil
	}
	topK := 3 * k
	if topK < 3 {
		topK = 3
	}
	candidates, _ := s.filter(meta)
	for _, r := range s.rankWithin(meta, topK, candidates) {
		names = append(names, r.Name)
		if len(names) == k {
			break
		}
	}
	return names
}

// rankWithin ranks the catalog and keeps only entries that survived
// the hierarchical filter.
func (s *Selector) rankWithin(meta domain.TaskMeta, topK int, candidates []string) []domain.RankedPersona {
	inFilter := make(map[string]struct{}, len(candidates))
	for _, name := range candidates {
		inFilter[name] = struct{}{}
	}
	var pool []domain.RankedPersona
	for _, r := range s.repo.RankForTask(meta, topK) {
		if _, ok := inFilter[r.Name]; ok {
			pool = append(pool, r)
		}
	}
	return pool
}

// filter narrows the catalog stage by stage: category, then role, then
// expertise. A stage that matches nothing is skipped rather than
// emptying the pool, so the result degrades to broader candidates
// instead of vanishing.
func (s *Selector) filter(meta domain.TaskMeta) ([]string, []domain.FilterStage) {
	all := s.repo.All()
	candidates := make([]string, 0, len(all))
	for name := range all {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)

	var stages []domain.FilterStage
	apply := func(stage, value string, match func(p domain.Persona) bool) {
		if strings.TrimSpace(value) == "" {
			stages = append(stages, domain.FilterStage{Stage: stage, Value: value, Kept: len(candidates), Applied: false})
			return
		}
		var kept []string
		for _, name := range candidates {
			if match(all[name]) {
				kept = append(kept, name)
			}
		}
		if len(kept) == 0 {
			s.logger.Debug("filter stage skipped, no survivors", "stage", stage, "value", value)
			stages = append(stages, domain.FilterStage{Stage: stage, Value: value, Kept: len(candidates), Applied: false})
			return
		}
		candidates = kept
		stages = append(stages, domain.FilterStage{Stage: stage, Value: value, Kept: len(kept), Applied: true})
	}

	apply("category", meta.Category, func(p domain.Persona) bool {
		return strings.EqualFold(p.Category, meta.Category)
	})
	apply("role", meta.Role, func(p domain.Persona) bool {
		return containsFold(p.Role, meta.Role) || containsFold(meta.Role, p.Role)
	})
	apply("expertise", meta.Expertise, func(p domain.Persona) bool {
		return containsFold(p.Expertise, meta.Expertise)
	})

	return candidates, stages
}

// breakTies picks from the top-score group by skill overlap with the
// task, then by the requested style appearing in the persona's
// description, keeping the earlier-ranked entry on a full tie.
func breakTies(pool []domain.RankedPersona, meta domain.TaskMeta) domain.RankedPersona {
	best := pool[0]
	bestOverlap, bestStyle := tieScore(best.Persona, meta)
	for _, r := range pool[1:] {
		if r.Score != best.Score {
			break
		}
		overlap, style := tieScore(r.Persona, meta)
		if overlap > bestOverlap || (overlap == bestOverlap && style > bestStyle) {
			best, bestOverlap, bestStyle = r, overlap, style
		}
	}
	return best
}

func tieScore(p domain.Persona, meta domain.TaskMeta) (overlap, style int) {
	want := make(map[string]struct{}, len(meta.Skills))
	for _, sk := range meta.Skills {
		want[strings.ToLower(sk)] = struct{}{}
	}
	for _, sk := range p.Skills {
		if _, ok := want[strings.ToLower(sk)]; ok {
			overlap++
		}
	}
	if meta.Style != "" && containsFold(p.Description, meta.Style) {
		style = 1
	}
	return overlap, style
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
