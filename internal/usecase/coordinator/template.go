package coordinator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"conductor-ai/internal/domain"
)

var ErrTemplateNotFound = errors.New("template not found")

// TemplateItem is one subtask blueprint inside a decomposition
// template. Content and Description may carry a {user_request}
// placeholder substituted at decomposition time.
type TemplateItem struct {
	IDSuffix    string   `yaml:"id_suffix"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Content     string   `yaml:"content"`
	Priority    string   `yaml:"priority"`
	DependsOn   []string `yaml:"depends_on"`
}

// Template is an ordered list of subtask blueprints.
type Template struct {
	Items []TemplateItem `yaml:"items"`
}

// Validate rejects templates that would produce unusable subtasks.
func (t *Template) Validate() error {
	if t == nil || len(t.Items) == 0 {
		return errors.New("template has no subtasks")
	}
	seen := make(map[string]struct{}, len(t.Items))
	for i, item := range t.Items {
		if strings.TrimSpace(item.IDSuffix) == "" {
			return fmt.Errorf("template item %d: missing id_suffix", i)
		}
		if strings.TrimSpace(item.Type) == "" {
			return fmt.Errorf("template item %d: missing type", i)
		}
		if strings.TrimSpace(item.Content) == "" {
			return fmt.Errorf("template item %d: missing content", i)
		}
		if _, dup := seen[item.IDSuffix]; dup {
			return fmt.Errorf("template item %d: duplicate id_suffix %q", i, item.IDSuffix)
		}
		seen[item.IDSuffix] = struct{}{}
	}
	return nil
}

// Instantiate expands a template into concrete subtasks for one task.
// Subtask ids are taskID joined to the item's id_suffix, and depends_on
// suffixes are rewritten through the same scheme.
func (t *Template) Instantiate(taskID, userRequest string) []domain.Subtask {
	subtasks := make([]domain.Subtask, 0, len(t.Items))
	for _, item := range t.Items {
		priority := item.Priority
		if priority == "" {
			priority = string(domain.PriorityMedium)
		}
		var deps []string
		for _, suffix := range item.DependsOn {
			deps = append(deps, taskID+"_"+suffix)
		}
		subtasks = append(subtasks, domain.Subtask{
			SubtaskID:   taskID + "_" + item.IDSuffix,
			Type:        item.Type,
			Description: interpolate(item.Description, userRequest),
			Content:     interpolate(item.Content, userRequest),
			Priority:    priority,
			DependsOn:   deps,
		})
	}
	return subtasks
}

// Placeholder substitution is plain string replacement. Requests are
// untrusted text, so a templating engine that evaluates its input is
// exactly what this must not be.
func interpolate(s, userRequest string) string {
	return strings.ReplaceAll(s, "{user_request}", userRequest)
}

// DefaultTemplate is the hardcoded last-resort decomposition used when
// no template source yields a valid template.
func DefaultTemplate() *Template {
	return &Template{Items: []TemplateItem{
		{
			IDSuffix:    "research",
			Type:        "research",
			Description: "Gather background information for the request",
			Content:     "Research the following request and collect relevant facts: {user_request}",
			Priority:    string(domain.PriorityHigh),
		},
		{
			IDSuffix:    "analysis",
			Type:        "analysis",
			Description: "Analyze the research findings",
			Content:     "Analyze the gathered material and draft a response for: {user_request}",
			Priority:    string(domain.PriorityMedium),
			DependsOn:   []string{"research"},
		},
	}}
}

// TemplateSource loads named decomposition templates.
type TemplateSource interface {
	Load(name string) (*Template, error)
}

// DirTemplates loads templates from <dir>/<name>.yaml, caching parsed
// results for the process lifetime.
type DirTemplates struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Template
}

func NewDirTemplates(dir string) *DirTemplates {
	return &DirTemplates{dir: dir, cache: make(map[string]*Template)}
}

func (d *DirTemplates) Load(name string) (*Template, error) {
	d.mu.Lock()
	if t, ok := d.cache[name]; ok {
		d.mu.Unlock()
		return t, nil
	}
	d.mu.Unlock()

	path := filepath.Join(d.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	d.mu.Lock()
	d.cache[name] = &t
	d.mu.Unlock()
	return &t, nil
}

// StaticTemplates serves templates from an in-memory map, mainly for
// tests and embedded defaults.
type StaticTemplates map[string]*Template

func (s StaticTemplates) Load(name string) (*Template, error) {
	t, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}
