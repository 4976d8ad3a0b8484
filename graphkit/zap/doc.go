// Package zap adapts go.uber.org/zap to the graphkit/log interface.
//
// Logs are teed into the OpenTelemetry log bridge so driver lifecycle events
// (connect, retry, close) correlate with the spans emitted by graphkit/neo4j.
package zap
