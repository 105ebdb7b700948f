package store

// Batch accumulates writes to be committed atomically by a single call to
// Store.Write. Implementations hand these out via Store.NewBatch so a
// caller touching several node keys (one ngram insertion walks its whole
// root-to-leaf path) commits them in one round trip.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
}

// RangeFunc is called once per (key, value) pair in ascending key order
// during a Store.Range scan. Returning a non-nil error stops the scan and
// that error is returned from Range.
type RangeFunc func(key, value []byte) error

// Store is the ordered key-value contract the entropy trie is built on
// (component C1). Any backend that preserves the byte ordering of keys as
// produced by EncodeKey/ChildRange/NormKey/PostingKey can implement it:
// an embedded LSM, a B-tree, or an in-memory ordered map.
type Store interface {
	// Get returns the value stored under key, and false if it is absent.
	Get(key []byte) (value []byte, ok bool, err error)

	// NewBatch returns an empty Batch ready for Put/Delete calls.
	NewBatch() Batch

	// Write commits a batch atomically.
	Write(b Batch) error

	// Range scans all keys k with start <= k < stop, in ascending order.
	Range(start, stop []byte, fn RangeFunc) error

	// DeleteAll empties the store.
	DeleteAll() error

	// Compact asks the backend to reclaim space. May be a no-op.
	Compact() error

	// Close releases backend resources.
	Close() error
}

// Error wraps a failure from the underlying store with the operation that
// triggered it. Callers should surface it with context and not retry; the
// spec's StoreError kind.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
