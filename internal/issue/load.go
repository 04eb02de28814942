package issue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Load reads an issue list. Files ending in .yaml or .yml are parsed as
// YAML, everything else as JSON. Every issue is validated and ids must be
// unique.
func Load(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issues: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes an issue list in the format named by ext.
func Parse(data []byte, ext string) ([]Issue, error) {
	var raw []map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse issues yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse issues json: %w", err)
		}
	}

	issues := make([]Issue, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for idx, item := range raw {
		var it Issue
		if err := decode(item, &it); err != nil {
			return nil, fmt.Errorf("issue #%d: %w", idx+1, err)
		}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate issue id %q", it.ID)
		}
		seen[it.ID] = true
		issues = append(issues, it)
	}
	return issues, nil
}

// decode accepts loosely typed values, e.g. "true" for require_stack or a
// numeric jdk_version.
func decode(in map[string]any, out *Issue) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("decode issue: %w", err)
	}
	return nil
}

// Select returns the issues with the given ids in the order given. An empty
// id list selects everything.
func Select(issues []Issue, ids []string) ([]Issue, error) {
	if len(ids) == 0 {
		return issues, nil
	}
	byID := make(map[string]Issue, len(issues))
	for _, it := range issues {
		byID[it.ID] = it
	}
	out := make([]Issue, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown issue %q", id)
		}
		out = append(out, it)
	}
	return out, nil
}
