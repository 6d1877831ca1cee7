package testutil

import "sync"

// RecordingSink captures every emission for later assertions.
//
// It satisfies engine.Sink without importing it, so engine tests can use it.
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingSink struct {
	mu    sync.Mutex
	items []string
	seqs  []int64

	// FailAt makes Emit return Err when seq equals FailAt (0 = never fail).
	FailAt int64
	Err    error
}

// Emit records item and seq.
func (s *RecordingSink) Emit(item string, seq int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAt != 0 && seq == s.FailAt {
		return s.Err
	}
	s.items = append(s.items, item)
	s.seqs = append(s.seqs, seq)
	return nil
}

// Items returns the emitted items in order. Never nil.
func (s *RecordingSink) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Seqs returns the sequence numbers passed with each emission.
func (s *RecordingSink) Seqs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.seqs))
	copy(out, s.seqs)
	return out
}
