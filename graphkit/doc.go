// Package graphkit carries request-scoped facilities (logger, tracer,
// request id and the graph extension) through context.Context.
//
// Subpackages hold the pieces: config resolves NEO4J_* settings, neo4j owns
// the driver lifecycle, host describes the application an extension attaches
// to, and net/http and server expose it over fiber and gRPC.
package graphkit
