// Package server runs fiber and gRPC servers for a graph-backed service and
// shuts them down in order: servers first, then the host lifecycle (which
// closes the neo4j driver), then the logger.
//
// When a health checker is configured the gRPC server also serves the
// standard grpc.health.v1 service, reporting the "neo4j" service as SERVING
// while the checker's Ping succeeds.
package server
