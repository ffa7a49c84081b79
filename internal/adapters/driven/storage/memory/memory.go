// Package memory provides in-memory store implementations used by
// tests and dry runs. Nothing is persisted past process exit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
)

var (
	_ driven.CorpusStore     = (*CorpusStore)(nil)
	_ driven.CheckpointStore = (*CheckpointStore)(nil)
	_ driven.PartitionWriter = (*PartitionWriter)(nil)
	_ driven.RunStore        = (*RunStore)(nil)
)

// CorpusStore keeps corpora in a map.
type CorpusStore struct {
	mu      sync.Mutex
	corpora map[string]domain.Corpus
}

// NewCorpusStore creates an empty in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{corpora: make(map[string]domain.Corpus)}
}

// SaveCorpus implements driven.CorpusStore.
func (s *CorpusStore) SaveCorpus(_ context.Context, name string, corpus domain.Corpus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpora[name] = corpus
	return nil
}

// LoadCorpus implements driven.CorpusStore.
func (s *CorpusStore) LoadCorpus(_ context.Context, name string) (domain.Corpus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	corpus, ok := s.corpora[name]
	if !ok {
		return domain.Corpus{}, fmt.Errorf("corpus %q: %w", name, domain.ErrNotFound)
	}
	return corpus, nil
}

// CheckpointStore keeps the latest checkpoint in memory.
type CheckpointStore struct {
	mu    sync.Mutex
	cp    domain.Checkpoint
	saved bool

	// Saves counts how many times Save was called, for asserting
	// checkpoint cadence in tests.
	Saves int

	// FailNextSave makes the next Save return an error.
	FailNextSave error
}

// NewCheckpointStore creates an empty in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{}
}

// Save implements driven.CheckpointStore.
func (s *CheckpointStore) Save(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextSave != nil {
		err := s.FailNextSave
		s.FailNextSave = nil
		return err
	}
	s.cp = cp
	s.saved = true
	s.Saves++
	return nil
}

// Load implements driven.CheckpointStore.
func (s *CheckpointStore) Load(_ context.Context) (domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return domain.Checkpoint{}, fmt.Errorf("checkpoint: %w", domain.ErrNotFound)
	}
	return s.cp, nil
}

// PartitionWriter captures written partitions by name.
type PartitionWriter struct {
	mu         sync.Mutex
	Partitions map[string][]domain.TrainingExample
	Manifest   *domain.DatasetManifest
}

// NewPartitionWriter creates an empty in-memory partition writer.
func NewPartitionWriter() *PartitionWriter {
	return &PartitionWriter{Partitions: make(map[string][]domain.TrainingExample)}
}

// WritePartition implements driven.PartitionWriter.
func (w *PartitionWriter) WritePartition(_ context.Context, name string, examples []domain.TrainingExample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Partitions[name] = append([]domain.TrainingExample(nil), examples...)
	return nil
}

// WriteManifest implements driven.PartitionWriter.
func (w *PartitionWriter) WriteManifest(_ context.Context, m domain.DatasetManifest) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Manifest = &m
	return nil
}

// RunStore keeps run records in a slice, newest first.
type RunStore struct {
	mu   sync.Mutex
	runs []driven.RunRecord
}

// NewRunStore creates an empty in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// RecordRun implements driven.RunStore.
func (s *RunStore) RecordRun(_ context.Context, rec driven.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append([]driven.RunRecord{rec}, s.runs...)
	return nil
}

// ListRuns implements driven.RunStore.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]driven.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	return append([]driven.RunRecord(nil), s.runs[:limit]...), nil
}

// Close implements driven.RunStore.
func (s *RunStore) Close() error { return nil }
