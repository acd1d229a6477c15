package bt

import (
	"encoding/json"
	"strings"
	"sync"
)

// Blackboard is the per-entity scratch store for cross-tick memory. The
// evaluator keeps repeater counters here and the game's condition callback
// may read or write its own keys; the scheduler never touches it directly.
type Blackboard struct {
	mu      sync.RWMutex
	data    map[string]any
	version int64
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]any)}
}

// Set stores a value.
func (bb *Blackboard) Set(key string, value any) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	bb.data[key] = value
	bb.version++
}

// Get retrieves a value.
func (bb *Blackboard) Get(key string) (any, bool) {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	v, ok := bb.data[key]
	return v, ok
}

// GetString retrieves a string value.
func (bb *Blackboard) GetString(key string) (string, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt retrieves an int value, converting from float64 when the value
// came through a JSON decode.
func (bb *Blackboard) GetInt(key string) (int, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// GetBool retrieves a boolean value.
func (bb *Blackboard) GetBool(key string) (bool, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Has reports whether key exists.
func (bb *Blackboard) Has(key string) bool {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	_, ok := bb.data[key]
	return ok
}

// Delete removes a key.
func (bb *Blackboard) Delete(key string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	delete(bb.data, key)
	bb.version++
}

// DeletePrefix removes every key starting with prefix.
func (bb *Blackboard) DeletePrefix(prefix string) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	for k := range bb.data {
		if strings.HasPrefix(k, prefix) {
			delete(bb.data, k)
		}
	}
	bb.version++
}

// Clear removes all data.
func (bb *Blackboard) Clear() {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	bb.data = make(map[string]any)
	bb.version++
}

// Version returns a counter that changes on every mutation. Observers use
// it to skip unchanged snapshots.
func (bb *Blackboard) Version() int64 {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	return bb.version
}

// Snapshot returns a shallow copy of the stored data.
func (bb *Blackboard) Snapshot() map[string]any {
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	out := make(map[string]any, len(bb.data))
	for k, v := range bb.data {
		out[k] = v
	}
	return out
}

// MarshalJSON exports the stored data for debug streams.
func (bb *Blackboard) MarshalJSON() ([]byte, error) {
	return json.Marshal(bb.Snapshot())
}
