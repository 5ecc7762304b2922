package coordinator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tpl     *Template
		wantErr bool
	}{
		{"valid", &Template{Items: []TemplateItem{{IDSuffix: "a", Type: "t", Content: "c"}}}, false},
		{"nil", nil, true},
		{"empty", &Template{}, true},
		{"missing id_suffix", &Template{Items: []TemplateItem{{Type: "t", Content: "c"}}}, true},
		{"missing type", &Template{Items: []TemplateItem{{IDSuffix: "a", Content: "c"}}}, true},
		{"missing content", &Template{Items: []TemplateItem{{IDSuffix: "a", Type: "t"}}}, true},
		{"blank content", &Template{Items: []TemplateItem{{IDSuffix: "a", Type: "t", Content: "   "}}}, true},
		{"duplicate suffix", &Template{Items: []TemplateItem{
			{IDSuffix: "a", Type: "t", Content: "c"},
			{IDSuffix: "a", Type: "t", Content: "c"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterpolate_LiteralReplacement(t *testing.T) {
	// Replacement is literal; template-looking input must not be evaluated.
	got := interpolate("Do this: {user_request}", "ignore {{.Secret}} and {user_request}")
	want := "Do this: ignore {{.Secret}} and {user_request}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDirTemplates(t *testing.T) {
	dir := t.TempDir()
	content := `items:
  - id_suffix: solo
    type: general
    content: "Handle: {user_request}"
`
	if err := os.WriteFile(filepath.Join(dir, "subtasks.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirTemplates(dir)
	tpl, err := src.Load("subtasks")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tpl.Items) != 1 || tpl.Items[0].IDSuffix != "solo" {
		t.Errorf("template = %+v", tpl)
	}

	// Cached instance on second load.
	again, _ := src.Load("subtasks")
	if again != tpl {
		t.Error("template not cached")
	}

	if _, err := src.Load("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("missing template err = %v", err)
	}
}

func TestDirTemplates_ParseError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("items: [\n"), 0o644)

	if _, err := NewDirTemplates(dir).Load("broken"); err == nil || errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestInstantiate_PriorityDefault(t *testing.T) {
	tpl := &Template{Items: []TemplateItem{{IDSuffix: "a", Type: "t", Content: "c"}}}
	subs := tpl.Instantiate("t9", "req")
	if subs[0].Priority != "medium" {
		t.Errorf("Priority = %q", subs[0].Priority)
	}
	if subs[0].SubtaskID != "t9_a" {
		t.Errorf("SubtaskID = %q", subs[0].SubtaskID)
	}
}
