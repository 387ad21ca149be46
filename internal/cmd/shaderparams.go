package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/preset"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addShaderFlags registers --preset and --set on commands that evaluate the
// shader.
func addShaderFlags(cmd *cobra.Command) {
	cmd.Flags().String("preset", "", "Start from a stored preset")
	cmd.Flags().StringArray("set", nil, "Override a shader parameter (key=value, repeatable)")
}

// shaderValues resolves the shader parameters for cmd: defaults, then the
// preset, then the "shader" config section, then --set overrides.
func shaderValues(ctx context.Context, cmd *cobra.Command) (params.Values, error) {
	presetName, err := cmd.Flags().GetString("preset")
	if err != nil {
		return params.Values{}, err
	}
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return params.Values{}, err
	}
	return resolveValues(ctx, presetName, viper.GetStringMap("shader"), sets)
}

func resolveValues(ctx context.Context, presetName string, configured map[string]any, sets []string) (params.Values, error) {
	v := params.Default()

	if presetName != "" {
		store, err := preset.Open(viper.GetString("preset-db"))
		if err != nil {
			return params.Values{}, err
		}
		defer store.Close()

		p, err := store.Get(ctx, presetName)
		if err != nil {
			return params.Values{}, err
		}
		v = p.Values
	}

	if len(configured) > 0 {
		if err := params.DecodeInto(configured, &v); err != nil {
			return params.Values{}, fmt.Errorf("invalid shader config: %w", err)
		}
	}

	if len(sets) > 0 {
		overrides := make(map[string]any, len(sets))
		for _, s := range sets {
			key, value, err := parseSet(s)
			if err != nil {
				return params.Values{}, err
			}
			overrides[key] = value
		}
		if err := params.DecodeInto(overrides, &v); err != nil {
			return params.Values{}, fmt.Errorf("invalid --set: %w", err)
		}
	}

	return v, nil
}

// parseSet splits a key=value override. The key must name a declared
// parameter.
func parseSet(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid --set %q: expected key=value", s)
	}
	def, found := params.Lookup(key)
	if !found {
		return "", "", fmt.Errorf("invalid --set %q: unknown parameter %q", s, key)
	}
	if def.ReadOnly {
		return "", "", fmt.Errorf("invalid --set %q: %s is read-only", s, def.Name)
	}
	return def.Name, strings.TrimSpace(value), nil
}
