package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edgefleet/fleetman/pkg/types"
)

// LoadTemplates reads a yaml template file and returns the template set it
// defines. An empty path returns the built-in set.
func LoadTemplates(path string) ([]types.ProjectTemplate, error) {
	if path == "" {
		return types.BuiltinTemplates(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	var doc struct {
		Templates []types.ProjectTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}
	if len(doc.Templates) == 0 {
		return nil, fmt.Errorf("template file %s defines no templates", path)
	}

	for i := range doc.Templates {
		t := &doc.Templates[i]
		if t.ID == "" || t.ScriptURL == "" || t.CommitAPIURL == "" {
			return nil, fmt.Errorf("template %d in %s is missing id, scriptUrl or commitApiUrl", i, path)
		}
	}
	return doc.Templates, nil
}
