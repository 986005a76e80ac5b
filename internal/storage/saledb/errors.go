package saledb

import "errors"

var (
	// ErrClosed is returned when operating on a closed database.
	ErrClosed = errors.New("saledb: database is closed")

	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("saledb: key not found")

	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("saledb: corrupt record")
)
