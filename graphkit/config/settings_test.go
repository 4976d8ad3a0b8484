//go:build unit

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LerianStudio/lib-graphkit/graphkit/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FillsDefaults(t *testing.T) {
	t.Parallel()

	m := Mapping{}
	settings := Resolve(m)

	assert.Equal(t, "bolt://localhost:7687", m[KeyURI])
	assert.Equal(t, Auth{Username: "neo4j", Password: "neo4j"}, m[KeyAuth])
	assert.Equal(t, "neo4j", m[KeyDatabase])
	assert.Equal(t, 100, m[KeyMaxConnectionPoolSize])
	assert.Equal(t, 30.0, m[KeyConnectionTimeout])
	assert.Equal(t, false, m[KeyConnectionRetry])
	assert.Equal(t, 5, m[KeyRetryInterval])
	assert.Equal(t, 3, m[KeyRetryCount])
	assert.Equal(t, map[string]any{}, m[KeyDriverConfig])

	assert.Equal(t, Settings{
		URI:                   "bolt://localhost:7687",
		Auth:                  Auth{Username: "neo4j", Password: "neo4j"},
		Database:              "neo4j",
		MaxConnectionPoolSize: 100,
		ConnectionTimeout:     30 * time.Second,
		Retry:                 backoff.Policy{Enabled: false, Interval: 5 * time.Second, Count: 3},
		DriverConfig:          map[string]any{},
	}, settings)
}

func TestResolve_PreservesCallerValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key    string
		value  any
		verify func(t *testing.T, s Settings)
	}{
		{KeyURI, "bolt://custom:7687", func(t *testing.T, s Settings) {
			assert.Equal(t, "bolt://custom:7687", s.URI)
		}},
		{KeyAuth, Auth{Username: "admin", Password: "pw"}, func(t *testing.T, s Settings) {
			assert.Equal(t, Auth{Username: "admin", Password: "pw"}, s.Auth)
		}},
		{KeyDatabase, "mydb", func(t *testing.T, s Settings) {
			assert.Equal(t, "mydb", s.Database)
		}},
		{KeyMaxConnectionPoolSize, 10, func(t *testing.T, s Settings) {
			assert.Equal(t, 10, s.MaxConnectionPoolSize)
		}},
		{KeyConnectionTimeout, 2.5, func(t *testing.T, s Settings) {
			assert.Equal(t, 2500*time.Millisecond, s.ConnectionTimeout)
		}},
		{KeyConnectionRetry, true, func(t *testing.T, s Settings) {
			assert.True(t, s.Retry.Enabled)
		}},
		{KeyRetryInterval, 0, func(t *testing.T, s Settings) {
			assert.Zero(t, s.Retry.Interval)
		}},
		{KeyRetryCount, 7, func(t *testing.T, s Settings) {
			assert.Equal(t, 7, s.Retry.Count)
		}},
		{KeyDriverConfig, map[string]any{"fetch_size": 500}, func(t *testing.T, s Settings) {
			assert.Equal(t, map[string]any{"fetch_size": 500}, s.DriverConfig)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			m := Mapping{tt.key: tt.value}
			settings := Resolve(m)

			assert.Equal(t, tt.value, m[tt.key], "caller value must not be overwritten")
			tt.verify(t, settings)
		})
	}
}

func TestResolve_NilMapping(t *testing.T) {
	t.Parallel()

	settings := Resolve(nil)

	assert.Equal(t, DefaultURI, settings.URI)
	assert.Equal(t, DefaultDatabase, settings.Database)
}

func TestResolve_CoercesLooseValues(t *testing.T) {
	t.Parallel()

	m := Mapping{
		KeyAuth:                  "reader/secret",
		KeyMaxConnectionPoolSize: "25",
		KeyConnectionTimeout:     "1m",
		KeyConnectionRetry:       "true",
		KeyRetryInterval:         "0.5",
		KeyRetryCount:            2.0,
	}

	settings := Resolve(m)

	assert.Equal(t, Auth{Username: "reader", Password: "secret"}, settings.Auth)
	assert.Equal(t, 25, settings.MaxConnectionPoolSize)
	assert.Equal(t, time.Minute, settings.ConnectionTimeout)
	assert.Equal(t, backoff.Policy{Enabled: true, Interval: 500 * time.Millisecond, Count: 2}, settings.Retry)
}

func TestResolve_UnusableValuesFallBack(t *testing.T) {
	t.Parallel()

	m := Mapping{
		KeyURI:                   42,
		KeyAuth:                  []string{"only-user"},
		KeyMaxConnectionPoolSize: "lots",
		KeyConnectionRetry:       "maybe",
		KeyDriverConfig:          "not-a-map",
	}

	settings := Resolve(m)

	assert.Equal(t, DefaultURI, settings.URI)
	assert.Equal(t, Auth{Username: DefaultUsername, Password: DefaultPassword}, settings.Auth)
	assert.Equal(t, DefaultMaxConnectionPoolSize, settings.MaxConnectionPoolSize)
	assert.False(t, settings.Retry.Enabled)
	assert.Equal(t, map[string]any{}, settings.DriverConfig)
	assert.Equal(t, 42, m[KeyURI])
}

func TestAuthValue_Shapes(t *testing.T) {
	t.Parallel()

	expected := Auth{Username: "u", Password: "p"}

	assert.Equal(t, expected, authValue(&expected))
	assert.Equal(t, expected, authValue([2]string{"u", "p"}))
	assert.Equal(t, expected, authValue([]any{"u", "p"}))
	assert.Equal(t, Auth{Username: "u", Password: "p", Realm: "r"},
		authValue(map[string]any{"username": "u", "password": "p", "realm": "r"}))
	assert.NotContains(t, expected.String(), "p\"")
}

func TestDriverOptions_MergesUnderExtraConfig(t *testing.T) {
	t.Parallel()

	settings := Resolve(Mapping{
		KeyMaxConnectionPoolSize: 10,
		KeyDriverConfig: map[string]any{
			OptionMaxConnectionPoolSize: 99,
			"fetch_size":                100,
		},
	})

	options := settings.DriverOptions()

	assert.Equal(t, 99, options[OptionMaxConnectionPoolSize], "extra driver options win")
	assert.Equal(t, 30*time.Second, options[OptionConnectionTimeout])
	assert.Equal(t, 100, options["fetch_size"])

	_, mutated := settings.DriverConfig[OptionConnectionTimeout]
	assert.False(t, mutated, "DriverOptions must not mutate settings")
}

func TestResolve_LaterMutationDoesNotLeak(t *testing.T) {
	t.Parallel()

	extra := map[string]any{"fetch_size": 1}
	m := Mapping{KeyDriverConfig: extra}

	settings := Resolve(m)
	extra["fetch_size"] = 2
	m[KeyURI] = "bolt://elsewhere:7687"

	assert.Equal(t, 1, settings.DriverConfig["fetch_size"])
	assert.Equal(t, DefaultURI, settings.URI)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(KeyURI, "neo4j://env-host:7687")
	t.Setenv(KeyAuth, "svc/pw")
	t.Setenv(KeyConnectionRetry, "true")
	t.Setenv(KeyDriverConfig, `{"fetch_size": 10}`)
	t.Setenv(KeyDatabase, "   ")

	m := FromEnv()

	assert.Equal(t, "neo4j://env-host:7687", m[KeyURI])
	assert.Equal(t, "svc/pw", m[KeyAuth])
	assert.Equal(t, map[string]any{"fetch_size": float64(10)}, m[KeyDriverConfig])
	assert.NotContains(t, m, KeyDatabase)

	settings := Resolve(m)
	assert.Equal(t, Auth{Username: "svc", Password: "pw"}, settings.Auth)
	assert.True(t, settings.Retry.Enabled)
	assert.Equal(t, DefaultDatabase, settings.Database)
}

func TestFromEnv_MalformedDriverConfigSkipped(t *testing.T) {
	t.Setenv(KeyDriverConfig, "{not json")

	assert.NotContains(t, FromEnv(), KeyDriverConfig)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")

	content := []byte(`
NEO4J_URI: bolt://file-host:7687
neo4j_database: movies
NEO4J_AUTH:
  username: reader
  password: secret
NEO4J_RETRY_COUNT: 1
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv(KeyDatabase, "override")

	m, err := LoadFile(path)
	require.NoError(t, err)

	settings := Resolve(m)
	assert.Equal(t, "bolt://file-host:7687", settings.URI)
	assert.Equal(t, "override", settings.Database)
	assert.Equal(t, Auth{Username: "reader", Password: "secret"}, settings.Auth)
	assert.Equal(t, 1, settings.Retry.Count)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMappingHelpers(t *testing.T) {
	t.Parallel()

	m := Mapping{"a": 1}

	assert.Equal(t, 1, m.SetDefault("a", 2))
	assert.Equal(t, 3, m.SetDefault("b", 3))

	clone := m.Clone()
	clone["a"] = 10
	assert.Equal(t, 1, m["a"])

	m.Merge(Mapping{"a": 5})
	assert.Equal(t, 5, m["a"])
	assert.Equal(t, Mapping{}, Mapping(nil).Clone())
}
