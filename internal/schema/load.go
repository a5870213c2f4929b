package schema

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mobility-advisor/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// schemaFile is the on-disk YAML layout.
type schemaFile struct {
	Domains map[string][]Field `yaml:"domains"`
}

// Load reads a schema registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}
	return parse(data)
}

// Default returns the embedded compensation and policy schemas.
func Default() *Registry {
	reg, err := parse(defaultsYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return reg
}

func parse(data []byte) (*Registry, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "schema: unmarshal")
	}
	if len(file.Domains) == 0 {
		return nil, eris.New("schema: no domains defined")
	}

	domains := make(map[model.Domain][]Field, len(file.Domains))
	for name, fields := range file.Domains {
		for _, f := range fields {
			if f.Key == "" {
				return nil, eris.Errorf("schema: domain %s has a field with no key", name)
			}
		}
		domains[model.Domain(name)] = fields
	}
	return NewRegistry(domains), nil
}
