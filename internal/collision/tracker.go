// Package collision tracks discriminator keys by hash so an index keyed by
// the hash alone can tell when it is no longer exact.
package collision

// Tracker records canonical discriminator keys and their hashes.
//
// Declaring the same key twice is allowed and keeps the first position;
// two different keys with one hash mark the tracker as collided.
type Tracker struct {
	keys         map[uint64]string // hash → first key seen
	order        []string          // distinct keys in first-seen order
	hasCollision bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		keys:  make(map[uint64]string),
		order: make([]string, 0),
	}
}

// Track records key under hash and reports whether the key is new.
// A repeated key returns false; a different key under a known hash sets the
// collision flag and also returns false.
func (t *Tracker) Track(key string, hash uint64) bool {
	existing, exists := t.keys[hash]
	if exists {
		if existing != key {
			t.hasCollision = true
		}

		return false
	}

	t.keys[hash] = key
	t.order = append(t.order, key)

	return true
}

// HasCollision reports whether two distinct keys shared a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Keys returns the distinct keys in first-seen order.
func (t *Tracker) Keys() []string {
	return t.order
}

// Count returns the number of distinct hashes tracked.
func (t *Tracker) Count() int {
	return len(t.order)
}
