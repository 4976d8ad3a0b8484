package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadFile reads the recognized keys from a yaml, json or toml file.
// NEO4J_* environment variables override values found in the file. Keys may
// be written in any case ("neo4j_uri" and "NEO4J_URI" are the same key).
func LoadFile(path string) (Mapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	m := Mapping{}

	for _, key := range Keys {
		lower := strings.ToLower(key)
		if !v.IsSet(lower) {
			continue
		}

		m[key] = v.Get(lower)
	}

	if env := FromEnv(); len(env) > 0 {
		m.Merge(env)
	}

	return m, nil
}
