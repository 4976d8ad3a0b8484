package config

import "time"

// Recognized configuration keys.
const (
	KeyURI                   = "NEO4J_URI"
	KeyAuth                  = "NEO4J_AUTH"
	KeyDatabase              = "NEO4J_DATABASE"
	KeyMaxConnectionPoolSize = "NEO4J_MAX_CONNECTION_POOL_SIZE"
	KeyConnectionTimeout     = "NEO4J_CONNECTION_TIMEOUT"
	KeyConnectionRetry       = "NEO4J_CONNECTION_RETRY"
	KeyRetryInterval         = "NEO4J_RETRY_INTERVAL"
	KeyRetryCount            = "NEO4J_RETRY_COUNT"
	KeyDriverConfig          = "NEO4J_DRIVER_CONFIG"
)

// Driver option names merged under the extra driver options.
const (
	OptionMaxConnectionPoolSize = "max_connection_pool_size"
	OptionConnectionTimeout     = "connection_timeout"
)

// Defaults.
const (
	DefaultURI                   = "bolt://localhost:7687"
	DefaultUsername              = "neo4j"
	DefaultPassword              = "neo4j"
	DefaultDatabase              = "neo4j"
	DefaultMaxConnectionPoolSize = 100
	DefaultConnectionTimeout     = 30.0
	DefaultConnectionRetry       = false
	DefaultRetryInterval         = 5
	DefaultRetryCount            = 3
)

// Keys lists every recognized key in resolution order.
var Keys = []string{
	KeyURI,
	KeyAuth,
	KeyDatabase,
	KeyMaxConnectionPoolSize,
	KeyConnectionTimeout,
	KeyConnectionRetry,
	KeyRetryInterval,
	KeyRetryCount,
	KeyDriverConfig,
}

// Default returns a fresh mapping holding every default value.
func Default() Mapping {
	return Mapping{
		KeyURI:                   DefaultURI,
		KeyAuth:                  Auth{Username: DefaultUsername, Password: DefaultPassword},
		KeyDatabase:              DefaultDatabase,
		KeyMaxConnectionPoolSize: DefaultMaxConnectionPoolSize,
		KeyConnectionTimeout:     DefaultConnectionTimeout,
		KeyConnectionRetry:       DefaultConnectionRetry,
		KeyRetryInterval:         DefaultRetryInterval,
		KeyRetryCount:            DefaultRetryCount,
		KeyDriverConfig:          map[string]any{},
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
