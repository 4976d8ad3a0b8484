// Package neo4j binds a host application's lifecycle to a Neo4j driver.
//
// An Extension resolves its settings from the host configuration, builds a
// driver and verifies connectivity (retrying transient unavailability when
// NEO4J_CONNECTION_RETRY is set), registers itself on the host under
// ExtensionKey and closes the driver when the host tears down:
//
//	app := host.NewApp(host.WithConfig(config.Mapping{config.KeyURI: "neo4j://db:7687"}))
//	graph, err := neo4j.NewWithHost(ctx, app)
//	...
//	records, err := graph.Execute(ctx, "MATCH (m:Movie) RETURN m.title AS title", nil)
//
// The factory pattern is supported through New followed by InitApp.
package neo4j
