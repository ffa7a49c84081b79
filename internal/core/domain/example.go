package domain

import "time"

// Message is a single turn in a training conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ExampleMeta is the audit side-channel attached to a training example.
// It survives every transformation but must never be fed to a model.
type ExampleMeta struct {
	// ID identifies the example across checkpoints and partitions.
	// For harvested examples it is the candidate's natural key; for
	// synthetic examples it is a generated uuid.
	ID string `json:"id,omitempty"`

	// Source names where the example came from.
	Source string `json:"source"`

	// Tech is the technology tag.
	Tech string `json:"tech,omitempty"`

	// URL links to the original item, empty for synthetic examples.
	URL string `json:"url,omitempty"`

	// Scenario names the generation template for synthetic examples.
	Scenario string `json:"scenario,omitempty"`

	// Category is the incident/bug category, if any.
	Category string `json:"category,omitempty"`
}

// TrainingExample is the final 3-role conversational record: a system
// instruction, a user prompt embedding the problem, and an assistant
// completion containing the solution.
type TrainingExample struct {
	Messages []Message   `json:"messages"`
	Meta     ExampleMeta `json:"_meta"`
}

// Key returns the identifier used for deduplication across partitions.
func (e TrainingExample) Key() string {
	return e.Meta.ID
}

// NewTrainingExample assembles the fixed 3-role conversation.
func NewTrainingExample(system, user, assistant string, meta ExampleMeta) TrainingExample {
	return TrainingExample{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
			{Role: "assistant", Content: assistant},
		},
		Meta: meta,
	}
}

// Assistant returns the completion text, or empty if the conversation
// is malformed.
func (e TrainingExample) Assistant() string {
	for _, m := range e.Messages {
		if m.Role == "assistant" {
			return m.Content
		}
	}
	return ""
}

// DatasetManifest summarises one assembled dataset: the split sizes,
// the parameters that produced them, and per-source counts. It sits
// next to the partitions so a consumer can verify provenance without
// rescanning the JSONL.
type DatasetManifest struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Seed        int64          `json:"seed"`
	TrainRatio  float64        `json:"train_ratio"`
	Train       int            `json:"train"`
	Eval        int            `json:"eval"`
	BySource    map[string]int `json:"by_source,omitempty"`
}
