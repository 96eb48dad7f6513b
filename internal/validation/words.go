package validation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// WordFilter rejects values containing any configured substring, ignoring case.
type WordFilter struct {
	words []string
}

// wordFile is the layout of FORBIDDEN_WORDS_FILE.
type wordFile struct {
	ForbiddenWords []string `yaml:"forbidden_words"`
}

// NewWordFilter builds a filter. Blank entries are ignored.
func NewWordFilter(words []string) *WordFilter {
	f := &WordFilter{}
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			f.words = append(f.words, strings.ToLower(w))
		}
	}
	return f
}

// LoadWordFilter reads the YAML file at path when set, otherwise uses words.
func LoadWordFilter(path string, words []string) (*WordFilter, error) {
	if path == "" {
		return NewWordFilter(words), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forbidden words file: %w", err)
	}

	var file wordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse forbidden words file: %w", err)
	}
	return NewWordFilter(file.ForbiddenWords), nil
}

// Words returns the normalized list.
func (f *WordFilter) Words() []string {
	return append([]string(nil), f.words...)
}

// Find returns the first forbidden word contained in value.
func (f *WordFilter) Find(value string) (string, bool) {
	if f == nil {
		return "", false
	}
	lowered := strings.ToLower(value)
	for _, w := range f.words {
		if strings.Contains(lowered, w) {
			return w, true
		}
	}
	return "", false
}

// Rule adapts the filter for use with Form.Field.
func (f *WordFilter) Rule() Rule {
	return func(value string) string {
		if w, found := f.Find(value); found {
			return fmt.Sprintf("forbidden word: %s", w)
		}
		return ""
	}
}
