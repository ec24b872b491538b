package bt

// Blackboard is a per-agent scratch key/value store. Nodes use it to pass
// hints within and across evaluations without touching the shared tree.
type Blackboard struct {
	values map[string]any
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{values: make(map[string]any)}
}

// Set stores a value under key.
func (b *Blackboard) Set(key string, v any) {
	b.values[key] = v
}

// Get returns the raw value and whether it exists.
func (b *Blackboard) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// GetString returns the value as a string, or "" when absent or mistyped.
func (b *Blackboard) GetString(key string) string {
	if v, ok := b.values[key].(string); ok {
		return v
	}
	return ""
}

// GetFloat returns the value as a float64, or 0 when absent or mistyped.
func (b *Blackboard) GetFloat(key string) float64 {
	if v, ok := b.values[key].(float64); ok {
		return v
	}
	return 0
}

// GetBool returns the value as a bool, or false when absent or mistyped.
func (b *Blackboard) GetBool(key string) bool {
	if v, ok := b.values[key].(bool); ok {
		return v
	}
	return false
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	delete(b.values, key)
}

// Clear removes every key.
func (b *Blackboard) Clear() {
	b.values = make(map[string]any)
}
