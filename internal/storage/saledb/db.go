// Package saledb persists the durable sale state: configuration params, the
// three liquidity totals, the current tick and every seller book. Records
// are msgpack-encoded and lz4-compressed above a size threshold; the engine
// writes through after each committed mutation and the daemon loads the
// whole state once at startup.
package saledb

import "context"

// DB is the key-value surface saledb runs on.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Batch(ctx context.Context, ops []BatchOperation) error
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)
	Close() error
}

// Iterator traverses entries in key order within [start, end).
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation is a single put or delete inside an atomic batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)
