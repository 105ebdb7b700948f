package store

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelStore implements Store on top of a goleveldb database. The same
// implementation backs both the in-memory and persistent storage kinds
// from Options: only the storage.Storage passed to leveldb.Open differs,
// following the pattern in haricheung-agentic-shell's memory store, which
// opens a *leveldb.DB and does prefix iteration with util.BytesPrefix.
type levelStore struct {
	db *leveldb.DB
}

// OpenMemory returns a Store backed by an in-memory goleveldb instance.
// Nothing is persisted; Close discards all data.
func OpenMemory() (Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, &Error{Op: "open", Err: errors.Wrap(err, "goleveldb open (memory)")}
	}
	return &levelStore{db: db}, nil
}

// OpenFile returns a Store backed by a goleveldb database at path,
// creating it if it does not already exist.
func OpenFile(path string) (Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, &Error{Op: "open", Err: errors.Wrapf(err, "goleveldb open %q", path)}
	}
	return &levelStore{db: db}, nil
}

func (s *levelStore) Get(key []byte) ([]byte, bool, error) {
	v, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &Error{Op: "get", Err: errors.Wrap(err, "goleveldb get")}
	}
	return v, true, nil
}

type levelBatch struct {
	b *leveldb.Batch
}

func (s *levelStore) NewBatch() Batch {
	return &levelBatch{b: new(leveldb.Batch)}
}

func (b *levelBatch) Put(key, value []byte) {
	b.b.Put(key, value)
}

func (b *levelBatch) Delete(key []byte) {
	b.b.Delete(key)
}

func (s *levelStore) Write(b Batch) error {
	lb, ok := b.(*levelBatch)
	if !ok {
		return &Error{Op: "write", Err: errors.New("store: batch not created by this Store")}
	}
	if err := s.db.Write(lb.b, nil); err != nil {
		return &Error{Op: "write", Err: errors.Wrap(err, "goleveldb write")}
	}
	return nil
}

func (s *levelStore) Range(start, stop []byte, fn RangeFunc) error {
	iter := s.db.NewIterator(&util.Range{Start: start, Limit: stop}, nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return &Error{Op: "range", Err: errors.Wrap(err, "goleveldb iterator")}
	}
	return nil
}

func (s *levelStore) DeleteAll() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return &Error{Op: "delete_all", Err: errors.Wrap(err, "goleveldb iterator")}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return &Error{Op: "delete_all", Err: errors.Wrap(err, "goleveldb write")}
	}
	return nil
}

func (s *levelStore) Compact() error {
	if err := s.db.CompactRange(util.Range{}); err != nil {
		return &Error{Op: "compact", Err: errors.Wrap(err, "goleveldb compact")}
	}
	return nil
}

func (s *levelStore) Close() error {
	if err := s.db.Close(); err != nil {
		return &Error{Op: "close", Err: errors.Wrap(err, "goleveldb close")}
	}
	return nil
}
