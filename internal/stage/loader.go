package stage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"supportflow/internal/ability"
	"supportflow/internal/services"
)

// CatalogFile is the on-disk form of a stage catalog.
type CatalogFile struct {
	Entry  string      `yaml:"entry"`
	Stages []StageFile `yaml:"stages"`
}

// StageFile is the on-disk form of one stage definition.
type StageFile struct {
	Name      string   `yaml:"name"`
	Mode      string   `yaml:"mode"`
	Abilities []string `yaml:"abilities"`
	Provider  string   `yaml:"provider"`
	Next      string   `yaml:"next"`
	Condition string   `yaml:"condition"`
	Otherwise string   `yaml:"otherwise"`
	Prompt    string   `yaml:"prompt"`
}

// ParseCatalogYAML decodes and validates a catalog from YAML bytes.
func ParseCatalogYAML(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, configErr("catalog payload is empty")
	}
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "decode catalog", "", err)
	}
	return file.Build()
}

// LoadCatalogReader reads catalog YAML from r.
func LoadCatalogReader(r io.Reader) (*Catalog, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalogYAML(content)
}

// LoadCatalogFile loads a catalog from path.
func LoadCatalogFile(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "read catalog", path, err)
	}
	c, err := ParseCatalogYAML(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func configErr(msg string) error {
	return services.Wrap(services.ErrConfiguration, "", "load catalog", msg, nil)
}

// Build converts the file form into a validated catalog.
func (f CatalogFile) Build() (*Catalog, error) {
	entry, err := ParseID(f.Entry)
	if err != nil {
		return nil, configErr("entry: " + err.Error())
	}
	defs := make([]Definition, 0, len(f.Stages))
	for i, s := range f.Stages {
		def, err := s.definition()
		if err != nil {
			return nil, configErr(fmt.Sprintf("stages[%d]: %v", i, err))
		}
		defs = append(defs, def)
	}
	return NewCatalog(entry, defs)
}

func (s StageFile) definition() (Definition, error) {
	id, err := ParseID(s.Name)
	if err != nil {
		return Definition{}, err
	}
	mode, err := ParseMode(s.Mode)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", id, err)
	}
	def := Definition{
		ID:       id,
		Mode:     mode,
		Provider: strings.ToLower(strings.TrimSpace(s.Provider)),
		Prompt:   strings.TrimSpace(s.Prompt),
	}
	for _, a := range s.Abilities {
		if a = strings.TrimSpace(a); a != "" {
			def.Abilities = append(def.Abilities, ability.Name(a))
		}
	}
	if strings.TrimSpace(s.Next) != "" {
		if def.Next, err = ParseID(s.Next); err != nil {
			return Definition{}, fmt.Errorf("%s: next: %w", id, err)
		}
	}
	if strings.TrimSpace(s.Condition) != "" {
		otherwise, err := ParseID(s.Otherwise)
		if err != nil {
			return Definition{}, fmt.Errorf("%s: otherwise: %w", id, err)
		}
		if def.Branch, err = NewBranch(Condition(s.Condition), otherwise); err != nil {
			return Definition{}, fmt.Errorf("%s: %w", id, err)
		}
	} else if strings.TrimSpace(s.Otherwise) != "" {
		return Definition{}, fmt.Errorf("%s: otherwise requires a condition", id)
	}
	return def, nil
}
