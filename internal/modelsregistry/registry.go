// Package modelsregistry is the static catalog of models this gateway will
// accept in a completion request: ids, aliases, capabilities, and
// descriptive metadata. The catalog is embedded YAML, not a Go literal map,
// so it reads like data rather than code and can be audited independently
// of the binary.
package modelsregistry

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
	"gopkg.in/yaml.v3"

	domain "github.com/claudegateway/openai-bridge/model"
)

//go:embed models.yaml
var catalogYAML []byte

type catalogFile struct {
	Models []domain.ModelDescriptor `yaml:"models"`
}

// Registry answers list/get/validate/capabilities queries over the static
// catalog with O(1) lookup by id or alias. It is built once and never
// mutated afterward.
type Registry struct {
	byID      map[string]*domain.ModelDescriptor
	canonical map[string]string // alias (and id) -> canonical id
	ordered   []string          // canonical ids, in catalog order
}

// New parses the embedded catalog into a Registry.
func New() (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, errors.Wrap(err, "parsing embedded model catalog")
	}
	return FromDescriptors(file.Models)
}

// FromDescriptors builds a Registry directly from descriptors, bypassing the
// embedded catalog. Exists so tests (and, in principle, an operator-supplied
// override) don't need to round-trip through YAML.
func FromDescriptors(models []domain.ModelDescriptor) (*Registry, error) {
	r := &Registry{
		byID:      make(map[string]*domain.ModelDescriptor, len(models)),
		canonical: make(map[string]string, len(models)),
	}
	for i := range models {
		m := models[i]
		if m.ID == "" {
			return nil, errors.Errorf("model catalog entry %d has an empty id", i)
		}
		if _, dup := r.byID[m.ID]; dup {
			return nil, errors.Errorf("duplicate model id in catalog: %s", m.ID)
		}
		r.byID[m.ID] = &m
		r.canonical[m.ID] = m.ID
		r.ordered = append(r.ordered, m.ID)
		for _, alias := range m.Aliases {
			if existing, dup := r.canonical[alias]; dup {
				return nil, errors.Errorf("alias %q claimed by both %q and %q", alias, existing, m.ID)
			}
			r.canonical[alias] = m.ID
		}
	}
	return r, nil
}

// Resolve maps an id or alias to its canonical ModelDescriptor. ok is false
// for anything not in the catalog.
func (r *Registry) Resolve(idOrAlias string) (*domain.ModelDescriptor, bool) {
	canonical, ok := r.canonical[idOrAlias]
	if !ok {
		return nil, false
	}
	return r.byID[canonical], true
}

// List returns every descriptor, in catalog order.
func (r *Registry) List() []domain.ModelDescriptor {
	out := make([]domain.ModelDescriptor, 0, len(r.ordered))
	for _, id := range r.ordered {
		out = append(out, *r.byID[id])
	}
	return out
}

// AvailableIDs returns every canonical model id, in catalog order.
func (r *Registry) AvailableIDs() []string {
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ValidationResult is the outcome of validating a requested model id.
type ValidationResult struct {
	Valid       bool
	Suggestions []string
	Available   []string
}

// Validate checks whether idOrAlias resolves to a known model. When it does
// not, Suggestions ranks known ids by edit distance to the requested
// string, closest first, capped at maxSuggestions.
func (r *Registry) Validate(idOrAlias string) ValidationResult {
	if _, ok := r.Resolve(idOrAlias); ok {
		return ValidationResult{Valid: true, Available: r.AvailableIDs()}
	}
	return ValidationResult{
		Valid:       false,
		Suggestions: r.suggest(idOrAlias, 3),
		Available:   r.AvailableIDs(),
	}
}

func (r *Registry) suggest(requested string, maxSuggestions int) []string {
	type scored struct {
		id       string
		distance int
	}

	candidates := make([]scored, 0, len(r.ordered))
	for _, id := range r.ordered {
		candidates = append(candidates, scored{id: id, distance: levenshtein(requested, id)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if maxSuggestions > len(candidates) {
		maxSuggestions = len(candidates)
	}
	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates[:maxSuggestions] {
		out = append(out, c.id)
	}
	return out
}

// levenshtein computes the classic single-character-edit distance between
// two strings, case-insensitively, so "Claude-Opus" and "claude-opus" are
// treated as identical.
func levenshtein(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
