// Package corpus holds the curated reference prompts and their embedding table.
package corpus

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_corpus.yaml
var defaultCorpusYAML []byte

// Corpus is an ordered, read-only list of reference prompts. Entries are
// identified by their 1-based position.
type Corpus struct {
	prompts []string
}

type corpusFile struct {
	Prompts []string `yaml:"prompts"`
}

// New copies prompts into a corpus unchanged. Blank entries are rejected so that
// every position maps to usable text.
func New(prompts []string) (*Corpus, error) {
	for i, p := range prompts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("corpus entry %d is blank", i+1)
		}
	}
	cp := make([]string, len(prompts))
	copy(cp, prompts)
	return &Corpus{prompts: cp}, nil
}

// Parse reads a YAML document with a top-level "prompts" list.
func Parse(data []byte) (*Corpus, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	return New(f.Prompts)
}

// Load reads a corpus file from disk.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Default returns the built-in reference corpus.
func Default() *Corpus {
	c, err := Parse(defaultCorpusYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded corpus is invalid: %v", err))
	}
	return c
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	return len(c.prompts)
}

// At returns the prompt at a 1-based position.
func (c *Corpus) At(position int) (string, bool) {
	if position < 1 || position > len(c.prompts) {
		return "", false
	}
	return c.prompts[position-1], true
}

// Prompts returns a copy of the entries in corpus order.
func (c *Corpus) Prompts() []string {
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}
