// Package driving provides interfaces for the application services
// (primary/inbound ports) consumed by the CLI.
package driving
