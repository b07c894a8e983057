package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/asybalance/internal/options"
	"github.com/GriffinCanCode/asybalance/internal/shared/types"
)

// ErrUnsupportedFormat is returned for document extensions with no decoder
var ErrUnsupportedFormat = errors.New("unsupported document format")

// LoadPreferences reads a preferences document. The format follows the
// file extension: .json, .yaml, .yml or .toml.
func LoadPreferences(path string) (types.Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	var prefs map[string]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = sonic.Unmarshal(data, &prefs)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &prefs)
	case ".toml":
		err = toml.Unmarshal(data, &prefs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode preferences %s: %w", path, err)
	}
	if prefs == nil {
		prefs = map[string]interface{}{}
	}
	return types.Preferences(prefs), nil
}

// LoadOptions reads an option document. JSON and YAML keep the order of
// perDomain matchers; TOML tables do not have one, so matchers from a
// TOML file are tried in key order.
func LoadOptions(path string) (options.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".yaml", ".yml":
		return options.Parse(data)
	case ".toml":
		var m map[string]interface{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode options %s: %w", path, err)
		}
		return options.Normalize(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
