package domain

import "time"

// GenerationStats tracks synthesis progress per technology and per
// scenario category. Counters travel with the checkpoint so a restart
// can be budgeted net of completed work.
type GenerationStats struct {
	Total      int            `json:"total"`
	ByTech     map[string]int `json:"by_tech"`
	ByCategory map[string]int `json:"by_category"`
	// FailedBatches counts batches discarded for parse or API errors.
	FailedBatches int `json:"failed_batches,omitempty"`
}

// NewGenerationStats returns zeroed stats with initialised maps.
func NewGenerationStats() GenerationStats {
	return GenerationStats{
		ByTech:     make(map[string]int),
		ByCategory: make(map[string]int),
	}
}

// Count records one accepted example.
func (s *GenerationStats) Count(tech, category string) {
	s.Total++
	if s.ByTech == nil {
		s.ByTech = make(map[string]int)
	}
	if s.ByCategory == nil {
		s.ByCategory = make(map[string]int)
	}
	s.ByTech[tech]++
	s.ByCategory[category]++
}

// Checkpoint is a full snapshot of synthesis progress: every example
// generated so far plus the running counters. It is always rewritten
// whole; there is no incremental append.
type Checkpoint struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Model       string            `json:"model"`
	Stats       GenerationStats   `json:"stats"`
	Examples    []TrainingExample `json:"examples"`
}

// HasExample reports whether an example id is already present.
func (c *Checkpoint) HasExample(id string) bool {
	if id == "" {
		return false
	}
	for _, ex := range c.Examples {
		if ex.Meta.ID == id {
			return true
		}
	}
	return false
}
