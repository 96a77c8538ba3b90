package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/developr-99/notes-generator-llm-app/internal/core/domain"
)

const DefaultSet = "standard"

//go:embed default_prompts.yaml
var defaultPrompts []byte

type fileEntry struct {
	Section  string `yaml:"section" toml:"section"`
	Template string `yaml:"template" toml:"template"`
}

type file struct {
	Sets map[string][]fileEntry `yaml:"sets" toml:"sets"`
}

// Set is one ordered list of section prompts.
type Set struct {
	name      string
	sections  []domain.Section
	templates map[domain.Section]*template.Template
}

// Load resolves the named set from the embedded defaults, with sets from
// overridePath (YAML or TOML) replacing same-named defaults.
func Load(name, overridePath string) (*Set, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultSet
	}

	var defaults file
	if err := yaml.Unmarshal(defaultPrompts, &defaults); err != nil {
		return nil, fmt.Errorf("parse default prompts: %w", err)
	}
	sets := defaults.Sets

	if strings.TrimSpace(overridePath) != "" {
		override, err := readFile(overridePath)
		if err != nil {
			return nil, err
		}
		for setName, entries := range override.Sets {
			sets[setName] = entries
		}
	}

	entries, ok := sets[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt set %q (available: %s)", name, strings.Join(setNames(sets), ", "))
	}
	return build(name, entries)
}

func readFile(path string) (file, error) {
	var out file
	raw, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read prompts file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &out)
	case ".toml":
		err = toml.Unmarshal(raw, &out)
	default:
		return out, fmt.Errorf("prompts file %s: unsupported extension, use .yaml, .yml or .toml", path)
	}
	if err != nil {
		return out, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	return out, nil
}

func build(name string, entries []fileEntry) (*Set, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("prompt set %q is empty", name)
	}

	set := &Set{
		name:      name,
		sections:  make([]domain.Section, 0, len(entries)),
		templates: make(map[domain.Section]*template.Template, len(entries)),
	}
	for _, entry := range entries {
		section := domain.Section(strings.TrimSpace(entry.Section))
		if !section.Valid() {
			return nil, fmt.Errorf("prompt set %q: unknown section %q", name, entry.Section)
		}
		if _, dup := set.templates[section]; dup {
			return nil, fmt.Errorf("prompt set %q: section %q listed twice", name, section)
		}
		tmpl, err := template.New(string(section)).Option("missingkey=error").Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("prompt set %q: parse %s: %w", name, section, err)
		}
		set.sections = append(set.sections, section)
		set.templates[section] = tmpl
	}
	return set, nil
}

func setNames(sets map[string][]fileEntry) []string {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Set) Name() string {
	return s.name
}

func (s *Set) Sections() []domain.Section {
	out := make([]domain.Section, len(s.sections))
	copy(out, s.sections)
	return out
}

func (s *Set) Render(section domain.Section, transcript string) (string, error) {
	tmpl, ok := s.templates[section]
	if !ok {
		return "", fmt.Errorf("prompt set %q has no %s prompt", s.name, section)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Transcript string }{Transcript: transcript}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", section, err)
	}
	return buf.String(), nil
}
