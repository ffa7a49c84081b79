// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): collectors, the LLM service, and the
// storage backends the pipeline writes to.
package driven
