package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vcfnp/internal/schema"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcfnp configuration",
		Long: `Show, get or set persisted settings in ~/` + configName + `.

Keys:
  chunk_size, ploidy, workers         positive integers
  strict, decompose                   booleans
  fields.<kind>                       comma-separated fields for variants, calls or info
  overrides.<ID>.arity                VCF Number (1, 2, A, R, G or .)
  overrides.<ID>.type                 Integer, Float, String, Flag or Categorical
  overrides.<ID>.missing              sentinel written for missing values`,
		Example: `  vcfnp config
  vcfnp config set chunk_size 50000
  vcfnp config set fields.calls GQ,DP
  vcfnp config set overrides.INFO/AC.arity 1
  vcfnp config get ploidy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and persist a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	})

	return cmd
}

// configPath returns the file settings are read from and written to.
func configPath() (string, error) {
	if p := viper.ConfigFileUsed(); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName), nil
}

// loadConfigFile reads the persisted settings only, without defaults, flags
// or environment. A missing file holds no settings.
func loadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func runConfigShow(cmd *cobra.Command) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	m, err := loadConfigFile(path)
	if err != nil {
		return err
	}
	if len(m) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "# No configuration set. Config file: "+path)
		return nil
	}

	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, out)
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	keyPath, v, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	m, err := loadConfigFile(path)
	if err != nil {
		return err
	}
	setPath(m, keyPath, v)

	out, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", strings.Join(keyPath, "."), value, path)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	switch v := val.(type) {
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = fmt.Sprint(p)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, ","))
	case []string:
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(v, ","))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}

// parseConfigValue checks key and value against the settings the commands
// read and returns the nested key path and the typed value to store.
func parseConfigValue(key, value string) ([]string, any, error) {
	parts := strings.Split(key, ".")
	name := strings.ToLower(parts[0])

	switch {
	case len(parts) == 1:
		switch name {
		case "chunk_size", "ploidy", "workers":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, nil, fmt.Errorf("%s must be a positive integer, got %q", name, value)
			}
			return []string{name}, n, nil
		case "strict", "decompose":
			b, err := parseBool(value)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", name, err)
			}
			return []string{name}, b, nil
		}

	case name == "fields" && len(parts) == 2:
		kind, err := schema.ParseTableKind(parts[1])
		if err != nil {
			return nil, nil, err
		}
		var fields []string
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			return nil, nil, fmt.Errorf("fields.%s needs at least one field", kind)
		}
		return []string{"fields", kind.String()}, fields, nil

	case name == "overrides" && len(parts) == 3 && parts[1] != "":
		id, attr := parts[1], strings.ToLower(parts[2])
		switch attr {
		case "arity":
			if _, err := schema.ParseArity(value); err != nil {
				return nil, nil, err
			}
		case "type":
			if _, err := schema.ParseType(value); err != nil {
				return nil, nil, err
			}
		case "missing":
			if t := viper.GetString("overrides." + id + ".type"); t != "" {
				if typ, err := schema.ParseType(t); err == nil {
					if _, err := schema.ParseFill(value, typ); err != nil {
						return nil, nil, err
					}
				}
			}
		default:
			return nil, nil, fmt.Errorf("unknown override attribute %q (want arity, type or missing)", attr)
		}
		return []string{"overrides", id, attr}, value, nil
	}
	return nil, nil, fmt.Errorf("unknown config key %q", key)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("not a boolean: %q", s)
	}
	return b, nil
}

// setPath stores v under the nested keys of path, creating maps on the way.
func setPath(m map[string]any, path []string, v any) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}
