// Package config resolves Neo4j connection settings from a host
// application's configuration mapping.
//
// Resolution follows set-default semantics: every recognized key that the
// host did not set is written back with its documented default, keys the
// host did set are never overwritten, and resolution never fails.
//
//	m := config.Mapping{config.KeyURI: "neo4j://graph:7687"}
//	settings := config.Resolve(m)
//	// m[config.KeyDatabase] == "neo4j"
//
// Mappings can also be built from NEO4J_* environment variables (FromEnv)
// or read from a file through viper (LoadFile).
package config
