// Package connectors provides implementations of the Collector interface
// for the upstream sources the harvester reads from. Each connector knows
// how to fetch candidate records from one source type (GitHub issues,
// GitHub discussions, question sites).
//
// The package root holds helpers shared by all connectors: error
// classification and retry backoff.
package connectors
