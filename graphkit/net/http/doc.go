// Package http provides fiber handlers and middleware for applications that
// carry a graphkit neo4j extension.
package http
