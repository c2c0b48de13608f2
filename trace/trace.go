// Package trace records harness operations for post-hoc inspection.
//
// Every handle operation (render, set_props, settle passes, dispatched
// events, unmount) is stamped with the window's logical clock and appended
// to a Recorder. Assertions never consult the trace; it exists so a hung or
// surprising settle can be reconstructed after the fact, either from the
// in-memory recorder or from a SQLite session dumped with `shadowrig
// trace`.
package trace

import "sync"

// Op is a recorded operation kind.
type Op string

const (
	OpRender      Op = "render"
	OpSetProps    Op = "set_props"
	OpSettleBegin Op = "settle_begin"
	OpSettleEnd   Op = "settle_end"
	OpEvent       Op = "event"
	OpUnmount     Op = "unmount"
)

// Record is one harness operation. Seq comes from the window's logical
// clock; records of one session are totally ordered by it.
type Record struct {
	Session string         `json:"session"`
	Handle  string         `json:"handle"`
	Seq     int64          `json:"seq"`
	Op      Op             `json:"op"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// Recorder accepts records. Implementations must tolerate concurrent calls.
type Recorder interface {
	Record(rec Record) error
}

// MemoryRecorder keeps records in order, for tests and ad-hoc debugging.
type MemoryRecorder struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) Record(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.recs...)
}

// Ops returns just the operation kinds, in order. Convenient in tests.
func (m *MemoryRecorder) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]Op, len(m.recs))
	for i, r := range m.recs {
		ops[i] = r.Op
	}
	return ops
}
