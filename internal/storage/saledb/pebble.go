package saledb

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleDB implements DB on a cockroachdb/pebble store.
type PebbleDB struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) a pebble database at path.
func OpenPebble(path string) (*PebbleDB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("saledb: open pebble at %s: %w", path, err)
	}
	return &PebbleDB{db: db}, nil
}

func (p *PebbleDB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, ErrClosed
	}
	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (p *PebbleDB) Write(ctx context.Context, key, value []byte) error {
	if p.db == nil {
		return ErrClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleDB) Delete(ctx context.Context, key []byte) error {
	if p.db == nil {
		return ErrClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleDB) Batch(ctx context.Context, ops []BatchOperation) error {
	if p.db == nil {
		return ErrClosed
	}
	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("saledb: unknown batch operation type %d", op.Type)
		}
	}
	return batch.Commit(pebble.Sync)
}

func (p *PebbleDB) Iterator(ctx context.Context, start, end []byte) (Iterator, error) {
	if p.db == nil {
		return nil, ErrClosed
	}
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{iter: iter}, nil
}

func (p *PebbleDB) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

type pebbleIterator struct {
	iter    *pebble.Iterator
	started bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *pebbleIterator) Key() []byte {
	k := it.iter.Key()
	out := make([]byte, len(k))
	copy(out, k)
	return out
}

func (it *pebbleIterator) Value() []byte {
	v := it.iter.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (it *pebbleIterator) Error() error { return it.iter.Error() }
func (it *pebbleIterator) Close() error { return it.iter.Close() }
