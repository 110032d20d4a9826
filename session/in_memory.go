package session

import (
	"sync"
	"time"
)

// Entry kinds recorded in a transcript.
const (
	KindTask          = "task"           // task text seeded into an agent
	KindModelResponse = "model_response" // raw model output
	KindToolResult    = "tool_result"    // dispatch result fed back to the model
	KindLifecycle     = "lifecycle"      // agent start / terminal transitions
)

// Entry is one transcript record.
type Entry struct {
	Seq       int       `json:"seq"`
	AgentID   string    `json:"agent_id"`
	Depth     int       `json:"depth"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the ordered record of one run tree.
type Transcript struct {
	RunID   string  `json:"run_id"`
	Entries []Entry `json:"entries"`
}

// Clone returns a deep copy safe for external use.
func (t *Transcript) Clone() *Transcript {
	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)

	return &Transcript{RunID: t.RunID, Entries: entries}
}

// InMemoryStore is a volatile transcript store keeping runs in a process
// local map. It is safe for concurrent access; each returned transcript is
// cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]*Transcript
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string]*Transcript)}
}

// Append adds an entry to a run's transcript, creating the transcript on
// first use. The entry's sequence number and timestamp are assigned here.
func (s *InMemoryStore) Append(runID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transcripts[runID]
	if !ok {
		t = &Transcript{RunID: runID}
		s.transcripts[runID] = t
	}

	e.Seq = len(t.Entries)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	t.Entries = append(t.Entries, e)
}

// Get returns a clone of a run's transcript.
func (s *InMemoryStore) Get(runID string) (*Transcript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[runID]
	if !ok {
		return nil, false
	}

	return t.Clone(), true
}

// Delete removes a run's transcript.
func (s *InMemoryStore) Delete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transcripts, runID)
}
