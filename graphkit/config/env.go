package config

import (
	"encoding/json"
	"os"
	"strings"
)

// GetenvOrDefault returns the trimmed value of key, or defaultValue when the
// variable is unset or blank.
func GetenvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}

	return value
}

// FromEnv builds a mapping from the NEO4J_* environment variables that are
// set. NEO4J_AUTH uses the "user/password" form and NEO4J_DRIVER_CONFIG holds
// a JSON object; a malformed driver config is skipped.
func FromEnv() Mapping {
	m := Mapping{}

	for _, key := range Keys {
		value := GetenvOrDefault(key, "")
		if value == "" {
			continue
		}

		if key == KeyDriverConfig {
			var extra map[string]any
			if err := json.Unmarshal([]byte(value), &extra); err != nil {
				continue
			}

			m[key] = extra

			continue
		}

		m[key] = value
	}

	return m
}

// Merge copies every entry of overrides into m, replacing existing keys.
func (m Mapping) Merge(overrides Mapping) Mapping {
	for key, value := range overrides {
		m[key] = value
	}

	return m
}
