package infrastructure

import "sync"

// MemoryManager tracks AST-node and IR-value allocation counts for the
// compiler's own bookkeeping (CompilationStats does not read them; its
// counts come from the IR builder); it has
// nothing to do with the Lumen runtime's own allocator story (spec.md
// §9: strings allocated through the platform allocator are leaked by
// design — the compiler never frees guest-program memory).
type MemoryManager interface {
	RecordNode()
	RecordAllocation(label string)
	Stats() MemoryStats
	Reset()
}

type MemoryStats struct {
	NodesAllocated  int
	StackSlots      int
	AllocationsByLabel map[string]int
}

// TrackingMemoryManager is a flat, mutex-protected counter set — simpler
// than a pooled allocator because the compiler's AST/IR lifetimes are
// both just "as long as the enclosing compilation", never individually
// freed (see spec.md §5's resource model).
type TrackingMemoryManager struct {
	mu     sync.Mutex
	nodes  int
	labels map[string]int
}

func NewTrackingMemoryManager() *TrackingMemoryManager {
	return &TrackingMemoryManager{labels: make(map[string]int)}
}

func (m *TrackingMemoryManager) RecordNode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes++
}

func (m *TrackingMemoryManager) RecordAllocation(label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[label]++
}

func (m *TrackingMemoryManager) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel := make(map[string]int, len(m.labels))
	slots := 0
	for k, v := range m.labels {
		byLabel[k] = v
		slots += v
	}
	return MemoryStats{NodesAllocated: m.nodes, StackSlots: slots, AllocationsByLabel: byLabel}
}

func (m *TrackingMemoryManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = 0
	m.labels = make(map[string]int)
}
