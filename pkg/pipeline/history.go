package pipeline

import (
	"sync"

	"github.com/askdoc/askdoc/internal/models"
)

// History is the session's ordered list of answered questions.
// Append-only; records are never mutated after creation and live only
// as long as the session.
type History struct {
	mu      sync.RWMutex
	records []models.AnswerRecord
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Append(record models.AnswerRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
}

// Records returns a copy of the history in question order.
func (h *History) Records() []models.AnswerRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.AnswerRecord, len(h.records))
	copy(out, h.records)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Clear drops the session history, e.g. when a new document replaces
// the index.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}
