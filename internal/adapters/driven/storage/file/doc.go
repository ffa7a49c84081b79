// Package file implements the corpus, checkpoint, and partition stores
// on the local filesystem. Corpora and checkpoints are whole-file JSON
// envelopes replaced atomically (write to a temp file in the same
// directory, then rename); partitions are line-delimited JSON.
package file
