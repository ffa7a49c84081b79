// Package domain contains the core business entities for the harvesting
// pipeline: candidate records fetched from providers, quality verdicts,
// training examples, corpora, and generation checkpoints.
//
// Domain types have no dependencies on adapters or external services.
package domain
