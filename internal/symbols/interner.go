package symbols

import "sync"

// Interner is the process-wide type-name table. It is append-only:
// names are registered while declarations are loaded, before any body
// is checked, and only looked up afterwards. The read-mostly lock keeps
// parallel per-declaration checking safe.
type Interner struct {
	mu    sync.RWMutex
	ids   map[string]int
	names []string
}

// NewInterner creates an empty table.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]int)}
}

// Intern registers a type name and returns its stable id. Interning an
// already-known name returns the existing id.
func (in *Interner) Intern(name string) int {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := len(in.names)
	in.ids[name] = id
	in.names = append(in.names, name)
	return id
}

// Lookup returns the id of a previously interned name.
func (in *Interner) Lookup(name string) (int, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.ids[name]
	return id, ok
}

// Name returns the name registered under id.
func (in *Interner) Name(id int) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id < 0 || id >= len(in.names) {
		return "", false
	}
	return in.names[id], true
}

// Len returns the number of interned names.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.names)
}
