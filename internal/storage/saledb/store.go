package saledb

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// Key layout. Books live under a common prefix so a single range scan
// recovers every seller at startup.
var (
	keyParams = []byte("meta/params")
	keyTotals = []byte("meta/totals")
	keyTick   = []byte("meta/tick")

	bookPrefix    = []byte("book/")
	bookPrefixEnd = []byte("book0") // '0' is '/'+1
)

// Store is the durable facade the engine writes through. It satisfies
// sale.Store.
type Store struct {
	db DB
}

// NewStore wraps db.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func bookKey(seller addr.Address) []byte {
	k := make([]byte, 0, len(bookPrefix)+40)
	k = append(k, bookPrefix...)
	k = append(k, []byte(hex.EncodeToString(seller[:]))...)
	return k
}

// PutBook stores the seller's full book.
func (s *Store) PutBook(seller addr.Address, book []*sale.SaleEntry) error {
	payload, err := encode(toBookRecord(book))
	if err != nil {
		return fmt.Errorf("saledb: encode book: %w", err)
	}
	return s.db.Write(context.Background(), bookKey(seller), payload)
}

// PutTotals stores the liquidity counters.
func (s *Store) PutTotals(t sale.Totals) error {
	payload, err := encode(toTotalsRecord(t))
	if err != nil {
		return fmt.Errorf("saledb: encode totals: %w", err)
	}
	return s.db.Write(context.Background(), keyTotals, payload)
}

// PutParams stores the configuration params.
func (s *Store) PutParams(p sale.Params) error {
	payload, err := encode(toParamsRecord(p))
	if err != nil {
		return fmt.Errorf("saledb: encode params: %w", err)
	}
	return s.db.Write(context.Background(), keyParams, payload)
}

// PutTick stores the current logical tick.
func (s *Store) PutTick(t tick.Tick) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t))
	return s.db.Write(context.Background(), keyTick, buf)
}

// State is everything LoadState recovers at startup. Present reports
// whether a persisted state existed at all (a fresh database loads empty).
type State struct {
	Present bool
	Params  sale.Params
	Totals  sale.Totals
	Tick    tick.Tick
	Books   map[addr.Address][]*sale.SaleEntry
}

// LoadState reads the whole durable state.
func (s *Store) LoadState(ctx context.Context) (State, error) {
	st := State{Books: make(map[addr.Address][]*sale.SaleEntry)}

	raw, err := s.db.Read(ctx, keyParams)
	if errors.Is(err, ErrKeyNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.Present = true

	var pRec paramsRecord
	if err := decode(raw, &pRec); err != nil {
		return st, err
	}
	if st.Params, err = fromParamsRecord(pRec); err != nil {
		return st, err
	}

	if raw, err = s.db.Read(ctx, keyTotals); err == nil {
		var tRec totalsRecord
		if err := decode(raw, &tRec); err != nil {
			return st, err
		}
		if st.Totals, err = fromTotalsRecord(tRec); err != nil {
			return st, err
		}
	} else if !errors.Is(err, ErrKeyNotFound) {
		return st, err
	}

	if raw, err = s.db.Read(ctx, keyTick); err == nil {
		if len(raw) != 8 {
			return st, fmt.Errorf("%w: tick record length %d", ErrCorrupt, len(raw))
		}
		st.Tick = tick.Tick(binary.BigEndian.Uint64(raw))
	} else if !errors.Is(err, ErrKeyNotFound) {
		return st, err
	}

	iter, err := s.db.Iterator(ctx, bookPrefix, bookPrefixEnd)
	if err != nil {
		return st, err
	}
	defer iter.Close()

	for iter.Next() {
		key := iter.Key()
		hexAddr := string(key[len(bookPrefix):])
		seller, err := addr.Parse(hexAddr)
		if err != nil {
			return st, fmt.Errorf("%w: book key %q", ErrCorrupt, key)
		}
		var bRec bookRecord
		if err := decode(iter.Value(), &bRec); err != nil {
			return st, err
		}
		book, err := fromBookRecord(bRec)
		if err != nil {
			return st, err
		}
		st.Books[seller] = book
	}
	return st, iter.Error()
}
