package config

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yamdb/internal/flagx"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read into Config:
// YAMDB_DATABASE_DSN -> database_dsn.
const EnvPrefix = "YAMDB_"

func load(args []string) (*Config, error) {
	defaults := &Config{}
	defaults.LoadDefaults()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML is a superset of JSON, so one parser covers both formats.
	if path := flagx.ConfigFileFlag(args); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if raw, ok := k.Get("cors_origins").(string); ok {
		if err := k.Set("cors_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("failed to process cors_origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps YAMDB_DATABASE_DSN to database_dsn.
func envKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
