// Package opentelemetry holds the span and metric helpers shared by graphkit
// packages. Providers are configured by the application through the global
// otel API; graphkit only reads them.
package opentelemetry
