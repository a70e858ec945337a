// Package config loads workflow definitions, execution inputs and .env files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/fieldflow/orchestrator/pkg/models"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, expected .json, .yaml or .yml")

// LoadEnv loads each existing .env file into the process environment.
// Variables already set are not overridden and missing files are skipped.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	return nil
}

// LoadWorkflowFile reads a workflow definition in JSON or YAML. A missing
// id defaults to the file name without extension.
func LoadWorkflowFile(path string) (*models.Workflow, error) {
	var wf models.Workflow
	if err := decodeFile(path, &wf); err != nil {
		return nil, err
	}

	if wf.ID == "" {
		wf.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &wf, nil
}

// LoadInput reads an execution input document. An empty path yields an
// empty input.
func LoadInput(path string) (map[string]any, error) {
	input := map[string]any{}
	if path == "" {
		return input, nil
	}

	if err := decodeFile(path, &input); err != nil {
		return nil, err
	}

	return input, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, out)
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}
