// Package log defines the logging interface and typed fields used across graphkit.
//
// Adapters (such as the zap package) implement Logger so the Neo4j extension
// and its outer surfaces log the same way regardless of backend.
package log
