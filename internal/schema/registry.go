package schema

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-advisor/internal/model"
)

// ErrUnknownDomain is returned by Get for domains with no registered schema.
var ErrUnknownDomain = eris.New("schema: unknown domain")

// Field is a single required piece of information for a domain. Description
// feeds the extractor's prompt; Question, Options, and Format drive the
// sequential collector's scripted prompts.
type Field struct {
	Key         string   `yaml:"key" json:"key"`
	Description string   `yaml:"description" json:"description"`
	Question    string   `yaml:"question" json:"question"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
	Format      string   `yaml:"format,omitempty" json:"format,omitempty"`
}

// Registry holds the ordered field schemas per domain. Immutable after
// construction.
type Registry struct {
	domains map[model.Domain][]Field
}

// NewRegistry builds a Registry from per-domain field lists. Field order is
// preserved; it determines the sequential collector's ask order.
func NewRegistry(domains map[model.Domain][]Field) *Registry {
	copied := make(map[model.Domain][]Field, len(domains))
	for d, fields := range domains {
		fs := make([]Field, len(fields))
		copy(fs, fields)
		copied[d] = fs
	}
	return &Registry{domains: copied}
}

// Get returns the ordered schema for domain, or ErrUnknownDomain if the
// domain is not registered.
func (r *Registry) Get(domain model.Domain) ([]Field, error) {
	fields, ok := r.domains[domain]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownDomain, "%q", domain)
	}
	return fields, nil
}

// Fields returns the ordered schema for domain, or nil for unknown domains.
// This is the empty-schema degrade used by the completion checker: an unknown
// domain has no required fields.
func (r *Registry) Fields(domain model.Domain) []Field {
	return r.domains[domain]
}

// Keys returns the field keys for domain in schema order.
func (r *Registry) Keys(domain model.Domain) []string {
	fields := r.domains[domain]
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Describe returns the description for a field key, or ("", false) if the
// domain or key is not registered.
func (r *Registry) Describe(domain model.Domain, key string) (string, bool) {
	for _, f := range r.domains[domain] {
		if f.Key == key {
			return f.Description, true
		}
	}
	return "", false
}

// Domains returns the registered domains in model priority order, followed by
// any extras in registration order.
func (r *Registry) Domains() []model.Domain {
	var out []model.Domain
	seen := make(map[model.Domain]bool)
	for _, d := range model.Domains {
		if _, ok := r.domains[d]; ok {
			out = append(out, d)
			seen[d] = true
		}
	}
	var extras []string
	for d := range r.domains {
		if !seen[d] {
			extras = append(extras, string(d))
		}
	}
	sort.Strings(extras)
	for _, d := range extras {
		out = append(out, model.Domain(d))
	}
	return out
}
