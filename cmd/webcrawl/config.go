package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAMLLoader is a kong.ConfigurationLoader reading flag values from a YAML
// mapping. Keys are flag names; dashes and underscores are interchangeable.
//
//	depth: 2
//	max_pages: 50
//	delay: 250ms
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[strings.ReplaceAll(k, "_", "-")] = v
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		v, ok := normalized[flag.Name]
		if !ok || v == nil {
			return nil, nil
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("config key %q must be a scalar", flag.Name)
		}
		return fmt.Sprint(v), nil
	}
	return f, nil
}
