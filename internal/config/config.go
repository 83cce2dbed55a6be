// Package config loads scenario definitions from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"echoload/internal/scenario"
)

// FileConfig is the on-disk layout of a scenario file.
type FileConfig struct {
	Scenario ScenarioConfig `yaml:"scenario" json:"scenario"`
}

type ScenarioConfig struct {
	Name     string       `yaml:"name" json:"name"`
	WaitTime *WaitConfig  `yaml:"wait_time" json:"wait_time"`
	Tasks    []TaskConfig `yaml:"tasks" json:"tasks"`
}

type WaitConfig struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

type TaskConfig struct {
	Name         string `yaml:"name" json:"name"`
	Weight       int    `yaml:"weight" json:"weight"`
	Method       string `yaml:"method" json:"method"`
	Path         string `yaml:"path" json:"path"`
	Body         string `yaml:"body" json:"body"`
	ExpectStatus int    `yaml:"expect_status" json:"expect_status"`
}

// LoadFile reads a .yaml, .yml or .json scenario file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format: %s", ext)
	}

	return &config, nil
}

// Validate checks the file-level fields before tasks are built.
func (f *FileConfig) Validate() error {
	sc := f.Scenario

	if w := sc.WaitTime; w != nil {
		if err := scenario.Between(w.Min, w.Max).Validate(); err != nil {
			return fmt.Errorf("wait_time: %w", err)
		}
	}

	for i, t := range sc.Tasks {
		if t.Path == "" {
			return fmt.Errorf("tasks[%d]: path is required", i)
		}
		if t.Weight < 0 {
			return fmt.Errorf("tasks[%d]: weight must be non-negative", i)
		}
		if t.ExpectStatus != 0 && (t.ExpectStatus < 100 || t.ExpectStatus > 599) {
			return fmt.Errorf("tasks[%d]: expect_status %d is not an HTTP status", i, t.ExpectStatus)
		}
	}

	return nil
}

// ToScenario builds a runnable scenario. Missing fields fall back to the
// built-in echo scenario: name "echo", wait 1..5s, one GET /echo task.
func (f *FileConfig) ToScenario(log *zap.Logger) (scenario.Scenario, error) {
	if err := f.Validate(); err != nil {
		return scenario.Scenario{}, err
	}

	sc := scenario.Echo(log)
	cfg := f.Scenario

	if cfg.Name != "" {
		sc.Name = cfg.Name
	}
	if cfg.WaitTime != nil {
		sc.Wait = scenario.Between(cfg.WaitTime.Min, cfg.WaitTime.Max)
	}

	if len(cfg.Tasks) > 0 {
		engine := scenario.NewTemplateEngine()
		tasks := make([]scenario.Task, 0, len(cfg.Tasks))
		for i, t := range cfg.Tasks {
			task, err := scenario.NewHTTPTask(log, engine, scenario.HTTPTaskDef{
				Name:         t.Name,
				Weight:       t.Weight,
				Method:       t.Method,
				Path:         t.Path,
				Body:         t.Body,
				ExpectStatus: t.ExpectStatus,
			})
			if err != nil {
				return scenario.Scenario{}, fmt.Errorf("tasks[%d]: %w", i, err)
			}
			tasks = append(tasks, task)
		}
		sc.Tasks = tasks
	}

	return sc, sc.Validate()
}

// Load reads path and builds its scenario; an empty path yields the
// built-in echo scenario.
func Load(path string, log *zap.Logger) (scenario.Scenario, error) {
	if path == "" {
		return scenario.Echo(log), nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return scenario.Scenario{}, err
	}
	return f.ToScenario(log)
}
