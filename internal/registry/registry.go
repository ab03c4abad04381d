// Package registry holds the canonical archetype signatures that functions are matched against.
package registry

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSignature is returned when a signature definition cannot be used for matching.
var ErrInvalidSignature = errors.New("invalid signature")

// Signature is a canonical archetype: positive evidence a unit should exhibit and
// anti-patterns it must not.
type Signature struct {
	ID           string   `yaml:"id"`
	Category     string   `yaml:"category"`
	Patterns     []Rule   `yaml:"patterns"`
	AntiPatterns []Rule   `yaml:"anti_patterns"`
	Constraints  []string `yaml:"constraints"`
}

// Registry is an immutable, ordered set of signatures. Order is significant: it breaks
// confidence ties and orders nothing else.
type Registry struct {
	signatures []Signature
}

// New validates and compiles the given signatures into a registry. Positive patterns are
// matched case-insensitively, anti-patterns case-sensitively.
func New(sigs []Signature) (*Registry, error) {
	seen := make(map[string]bool, len(sigs))
	out := make([]Signature, 0, len(sigs))
	for _, s := range sigs {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, errors.Wrap(ErrInvalidSignature, "empty id")
		}
		if seen[id] {
			return nil, errors.Wrapf(ErrInvalidSignature, "duplicate id %s", id)
		}
		seen[id] = true
		if len(s.Patterns) == 0 {
			return nil, errors.Wrapf(ErrInvalidSignature, "%s has no positive patterns", id)
		}

		c := Signature{
			ID:           id,
			Category:     s.Category,
			Patterns:     make([]Rule, len(s.Patterns)),
			AntiPatterns: make([]Rule, len(s.AntiPatterns)),
			Constraints:  append([]string(nil), s.Constraints...),
		}
		for i, r := range s.Patterns {
			if err := r.compile(true); err != nil {
				return nil, errors.Wrapf(errors.Mark(err, ErrInvalidSignature), "%s pattern %d", id, i)
			}
			c.Patterns[i] = r
		}
		for i, r := range s.AntiPatterns {
			if err := r.compile(false); err != nil {
				return nil, errors.Wrapf(errors.Mark(err, ErrInvalidSignature), "%s anti-pattern %d", id, i)
			}
			c.AntiPatterns[i] = r
		}
		out = append(out, c)
	}
	return &Registry{signatures: out}, nil
}

// Signatures returns the signatures in registry order. The slice is a copy.
func (r *Registry) Signatures() []Signature {
	return append([]Signature(nil), r.signatures...)
}

// Len returns the number of signatures.
func (r *Registry) Len() int {
	return len(r.signatures)
}

// Lookup finds a signature by id.
func (r *Registry) Lookup(id string) (Signature, bool) {
	for _, s := range r.signatures {
		if s.ID == id {
			return s, true
		}
	}
	return Signature{}, false
}

type registryFile struct {
	Signatures []Signature `yaml:"signatures"`
}

// Load reads a YAML registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry %s", path)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(errors.Mark(err, ErrInvalidSignature), "parse registry %s", path)
	}
	if len(f.Signatures) == 0 {
		return nil, errors.Wrapf(ErrInvalidSignature, "registry %s declares no signatures", path)
	}
	return New(f.Signatures)
}
