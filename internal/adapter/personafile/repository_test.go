package personafile

import (
	"os"
	"path/filepath"
	"testing"

	"conductor-ai/internal/domain"
)

const sampleCatalog = `personas:
  - name: researcher
    category: research
    role: researcher
    expertise: information gathering
    skills: [search, citation]
    style: [thorough]
    description: Digs into sources.
  - name: analyst
    category: analysis
    role: analyst
    expertise: quantitative analysis
    skills: [statistics]
    style: [precise]
    description: Crunches numbers.
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "personas.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	repo, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := repo.All()
	if len(all) != 2 {
		t.Fatalf("len = %d", len(all))
	}
	p := all["researcher"]
	if p.Category != "research" || len(p.Skills) != 2 {
		t.Errorf("persona = %+v", p)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Load(writeCatalog(t, "personas: [\n")); err == nil {
		t.Error("broken yaml accepted")
	}
	if _, err := Load(writeCatalog(t, "personas:\n  - category: x\n")); err == nil {
		t.Error("nameless persona accepted")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	repo := FromPersonas(map[string]domain.Persona{"a": {Name: "a"}})
	all := repo.All()
	all["b"] = domain.Persona{Name: "b"}
	if len(repo.All()) != 1 {
		t.Error("catalog mutated through All copy")
	}
}

func TestRankForTask(t *testing.T) {
	repo, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatal(err)
	}

	ranked := repo.RankForTask(domain.TaskMeta{
		Category: "analysis",
		Skills:   []string{"statistics"},
	}, 10)
	if len(ranked) == 0 || ranked[0].Name != "analyst" {
		t.Fatalf("ranked = %+v", ranked)
	}
	// skill overlap (2) + category (1.5)
	if ranked[0].Score != 3.5 {
		t.Errorf("score = %v", ranked[0].Score)
	}
}

func TestRankForTask_ZeroScoresExcluded(t *testing.T) {
	repo := FromPersonas(map[string]domain.Persona{
		"unrelated": {Name: "unrelated", Category: "cooking"},
	})
	if got := repo.RankForTask(domain.TaskMeta{Category: "research"}, 5); len(got) != 0 {
		t.Errorf("ranked = %+v", got)
	}
}

func TestRankForTask_TopKAndNameTieBreak(t *testing.T) {
	repo := FromPersonas(map[string]domain.Persona{
		"zeta":  {Name: "zeta", Category: "research"},
		"alpha": {Name: "alpha", Category: "research"},
		"mid":   {Name: "mid", Category: "research"},
	})
	ranked := repo.RankForTask(domain.TaskMeta{Category: "research"}, 2)
	if len(ranked) != 2 {
		t.Fatalf("len = %d", len(ranked))
	}
	if ranked[0].Name != "alpha" || ranked[1].Name != "mid" {
		t.Errorf("order = %v, %v", ranked[0].Name, ranked[1].Name)
	}
}

func TestRankForTask_StyleTokenBonus(t *testing.T) {
	repo := FromPersonas(map[string]domain.Persona{
		"styled": {Name: "styled", Category: "x", Style: []string{"concise"}},
		"plain":  {Name: "plain", Category: "x"},
	})
	ranked := repo.RankForTask(domain.TaskMeta{
		Category:    "x",
		Description: "a concise overview",
	}, 5)
	if ranked[0].Name != "styled" {
		t.Errorf("ranked = %+v", ranked)
	}
}
