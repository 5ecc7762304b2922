package domain

// Persona describes one selectable working style for a subtask.
type Persona struct {
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Role        string   `yaml:"role" json:"role"`
	Expertise   string   `yaml:"expertise" json:"expertise"`
	Skills      []string `yaml:"skills" json:"skills,omitempty"`
	Style       []string `yaml:"style" json:"style,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
}

// TaskMeta is the selection input: attributes describing the work a
// persona should be matched against. All fields are optional.
type TaskMeta struct {
	Category        string
	Role            string
	Expertise       string
	Skills          []string
	Style           string
	Description     string
	OriginalRequest string
}

// RankedPersona is one scored entry from a repository ranking.
type RankedPersona struct {
	Name    string
	Persona Persona
	Score   float64
}

// PersonaRepository provides the persona catalog and a relevance
// ranking over it. Implementations may panic on malformed data; the
// selector shields callers from that.
type PersonaRepository interface {
	All() map[string]Persona
	RankForTask(meta TaskMeta, topK int) []RankedPersona
}

// Selection is a successful persona pick with its full rationale.
type Selection struct {
	Name      string             `json:"name"`
	Persona   Persona            `json:"persona"`
	Score     float64            `json:"score"`
	Rationale SelectionRationale `json:"rationale"`
}

// SelectionRationale explains how the filter stages narrowed the
// catalog and which entry won.
type SelectionRationale struct {
	Filters   []FilterStage `json:"filters"`
	Selected  string        `json:"selected"`
	Score     float64       `json:"score"`
	Category  string        `json:"category,omitempty"`
	Role      string        `json:"role,omitempty"`
	Expertise string        `json:"expertise,omitempty"`
}

// FilterStage records one hierarchical filter pass. Applied is false
// when the stage would have removed every candidate and was skipped.
type FilterStage struct {
	Stage   string `json:"stage"`
	Value   string `json:"value"`
	Kept    int    `json:"kept"`
	Applied bool   `json:"applied"`
}

// PersonaPair is a writer/reviewer pairing for review workflows.
// Reviewer is empty when no distinct second persona qualified.
type PersonaPair struct {
	Writer   string `json:"writer"`
	Reviewer string `json:"reviewer,omitempty"`
}
