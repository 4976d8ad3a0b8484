// Package host defines what graphkit extensions need from the application
// they attach to: a configuration mapping, a per-application extension
// registry and lifecycle teardown hooks.
//
// App is a ready-made in-process host. Web frameworks are bridged by
// adapters such as host/fiberhost.
package host
