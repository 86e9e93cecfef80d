package querycache

// Mutation is one optimistic update in flight: the snapshot taken
// before the speculative patch, to be committed or rolled back once the
// server answers.
//
// Every mutating operation follows the same three-phase protocol:
//
//  1. BeginOptimistic cancels in-flight fetches for the resource (so a
//     slow response cannot clobber the patch), snapshots the affected
//     entries and applies the patch to each of them.
//  2. The caller sends the server request.
//  3. Commit on success (the optimistic state simply stays), Rollback
//     on failure (every snapshotted entry is restored verbatim).
type Mutation struct {
	cache *Cache
	saved map[string]any
}

// BeginOptimistic starts an optimistic update over every cached entry
// whose key starts with prefix. apply receives the entry's current data
// and returns the patched replacement; returning ok=false leaves the
// entry untouched (and out of the snapshot).
//
// apply must not mutate its argument: it returns a fresh value, per the
// cache's copy-on-write contract.
func (c *Cache) BeginOptimistic(prefix string, apply func(data any) (patched any, ok bool)) *Mutation {
	c.CancelPrefix(prefix)

	m := &Mutation{cache: c, saved: make(map[string]any)}
	for _, key := range c.Keys(prefix) {
		data, ok := c.Read(key)
		if !ok {
			continue
		}
		patched, ok := apply(data)
		if !ok {
			continue
		}
		m.saved[key] = data
		c.Write(key, patched)
	}
	return m
}

// Commit finalizes the update, keeping the optimistic state. The server
// already confirmed it, so no redundant re-write happens.
func (m *Mutation) Commit() {
	m.saved = nil
}

// Rollback restores every snapshotted entry to its pre-patch data.
func (m *Mutation) Rollback() {
	for key, data := range m.saved {
		m.cache.Write(key, data)
	}
	m.saved = nil
}

// Touched reports how many entries the optimistic patch modified.
func (m *Mutation) Touched() int {
	return len(m.saved)
}
