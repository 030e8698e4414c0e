package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadYAML loads a YAML file into the provided struct
func LoadYAML(path string, target interface{}) error {
	if path == "" {
		return fmt.Errorf("yaml path cannot be empty")
	}
	if target == nil {
		return fmt.Errorf("target cannot be nil")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("yaml file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read yaml file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal yaml file %s: %w", path, err)
	}
	return nil
}
