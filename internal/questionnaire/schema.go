package questionnaire

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const schemaEnv = "QUESTION_SCHEMA_YAML"

//go:embed default_schema.yaml
var defaultSchemaFS embed.FS

const (
	KindSingleSelect = "single_select"
	KindMultiSelect  = "multi_select"
	KindFreeText     = "free_text"
)

// Question is one entry of the versioned question schema. Matchable
// questions feed the compatibility scorer; free_text questions are
// never matchable regardless of the flag in the file.
type Question struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"`
	Prompt    string   `yaml:"prompt"`
	Options   []string `yaml:"options"`
	Matchable bool     `yaml:"matchable"`
}

type Schema struct {
	Version   int        `yaml:"version"`
	Questions []Question `yaml:"questions"`

	byID map[string]Question
}

var (
	schemaOnce sync.Once
	schema     *Schema
	schemaErr  error
)

// Default returns the process-wide question schema: the file named by
// QUESTION_SCHEMA_YAML when set, the embedded schema otherwise.
func Default() (*Schema, error) {
	schemaOnce.Do(func() {
		if path := strings.TrimSpace(os.Getenv(schemaEnv)); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				schemaErr = fmt.Errorf("read %s: %w", path, err)
				return
			}
			schema, schemaErr = Parse(raw)
			return
		}
		raw, err := defaultSchemaFS.ReadFile("default_schema.yaml")
		if err != nil {
			schemaErr = fmt.Errorf("read embedded schema: %w", err)
			return
		}
		schema, schemaErr = Parse(raw)
	})
	return schema, schemaErr
}

func Parse(raw []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse question schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.index()
	return &s, nil
}

func (s *Schema) validate() error {
	if s.Version <= 0 {
		return fmt.Errorf("question schema needs a positive version, got %d", s.Version)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("question schema has no questions")
	}
	seen := make(map[string]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question %d has an empty id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		switch q.Kind {
		case KindSingleSelect, KindMultiSelect:
			if len(q.Options) == 0 {
				return fmt.Errorf("question %q (%s) has no options", q.ID, q.Kind)
			}
		case KindFreeText:
		default:
			return fmt.Errorf("question %q has unknown kind %q", q.ID, q.Kind)
		}
	}
	return nil
}

func (s *Schema) index() {
	s.byID = make(map[string]Question, len(s.Questions))
	for _, q := range s.Questions {
		s.byID[q.ID] = q
	}
}

// Lookup returns the question for an id; ok is false for ids outside
// the schema, which callers skip rather than treat as fatal.
func (s *Schema) Lookup(id string) (Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

func (q Question) Scoreable() bool {
	return q.Matchable && q.Kind != KindFreeText
}

func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}
