package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of instance mapping files
type Loader struct {
	instancesDir string
}

// NewLoader creates a new instance mapping loader
func NewLoader(instancesDir string) *Loader {
	return &Loader{instancesDir: instancesDir}
}

// LoadAll loads all YAML mapping files from the instances directory.
// Later files override earlier entries for the same subscriber id.
func (l *Loader) LoadAll() ([]InstanceConfig, error) {
	if _, err := os.Stat(l.instancesDir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.instancesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.instancesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	bySubscriber := make(map[string]int)
	var instances []InstanceConfig

	for _, file := range files {
		loaded, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		for _, inst := range loaded {
			if err := l.validate(inst); err != nil {
				return nil, fmt.Errorf("invalid mapping in %s: %w", file, err)
			}
			if idx, ok := bySubscriber[inst.SubscriberID]; ok {
				instances[idx] = inst
				continue
			}
			bySubscriber[inst.SubscriberID] = len(instances)
			instances = append(instances, inst)
		}

		slog.Debug("Loaded instance mappings", "file", file, "count", len(loaded))
	}

	return instances, nil
}

// loadFile loads a single YAML mapping file
func (l *Loader) loadFile(path string) ([]InstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file InstancesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return file.Instances, nil
}

// validate checks that a mapping carries everything routing needs
func (l *Loader) validate(inst InstanceConfig) error {
	if inst.SubscriberID == "" {
		return fmt.Errorf("subscriber_id is required")
	}
	if inst.InstanceID == "" {
		return fmt.Errorf("instance_id is required (subscriber %s)", inst.SubscriberID)
	}
	if inst.InstanceName == "" {
		return fmt.Errorf("instance_name is required (subscriber %s)", inst.SubscriberID)
	}
	if inst.Token == "" {
		return fmt.Errorf("token is required (subscriber %s)", inst.SubscriberID)
	}
	return nil
}
