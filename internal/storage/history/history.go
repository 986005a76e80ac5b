// Package history maintains the append-only audit index of terminal sale
// resolutions in a relational store. It is a read-model beside the engine's
// own durable state: losing it never loses escrow funds, so writes are
// reported but not retried.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
)

const schema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id            INTEGER PRIMARY KEY,
	seller        TEXT    NOT NULL,
	entry_index   INTEGER NOT NULL,
	amount        TEXT    NOT NULL,
	fee_amount    TEXT    NOT NULL,
	currency_paid TEXT    NOT NULL,
	tick          INTEGER NOT NULL,
	status        TEXT    NOT NULL,
	resolved_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_seller ON resolutions (seller, id);
`

// Postgres wants a sequence-backed id and $n placeholders; rewrite both.
const pgSchema = `
CREATE TABLE IF NOT EXISTS resolutions (
	id            BIGSERIAL PRIMARY KEY,
	seller        TEXT    NOT NULL,
	entry_index   INTEGER NOT NULL,
	amount        TEXT    NOT NULL,
	fee_amount    TEXT    NOT NULL,
	currency_paid TEXT    NOT NULL,
	tick          BIGINT  NOT NULL,
	status        TEXT    NOT NULL,
	resolved_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resolutions_seller ON resolutions (seller, id);
`

const cacheSize = 1024

// Resolution is one stored terminal transition.
type Resolution struct {
	ID           int64
	Seller       addr.Address
	Index        int
	Amount       amount.Amount
	FeeAmount    amount.Amount
	CurrencyPaid amount.Amount
	Tick         tick.Tick
	Status       string
	ResolvedAt   time.Time
}

// Store is a resolution index over database/sql. Driver is "sqlite"
// (modernc, file or :memory: DSN) or "postgres" (lib/pq).
type Store struct {
	db       *sql.DB
	postgres bool
	cache    *lru.Cache[int64, Resolution]
	now      func() time.Time
}

// Open connects, creates the schema and returns the store.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("history: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", driver, err)
	}
	s := &Store{db: db, postgres: driver == "postgres", now: time.Now}
	ddl := schema
	if s.postgres {
		ddl = pgSchema
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	cache, err := lru.New[int64, Resolution](cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record implements sale.Recorder.
func (s *Store) Record(r sale.Resolution) error {
	_, err := s.db.Exec(
		s.rebind(`INSERT INTO resolutions
			(seller, entry_index, amount, fee_amount, currency_paid, tick, status, resolved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.Seller.String(), r.Index,
		r.Amount.String(), r.FeeAmount.String(), r.CurrencyPaid.String(),
		uint64(r.Tick), r.Status.String(), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("history: insert resolution: %w", err)
	}
	return nil
}

const selectCols = `id, seller, entry_index, amount, fee_amount, currency_paid, tick, status, resolved_at`

// BySeller returns the seller's resolutions, most recent first.
func (s *Store) BySeller(ctx context.Context, seller addr.Address, limit int) ([]Resolution, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+selectCols+` FROM resolutions WHERE seller = ? ORDER BY id DESC LIMIT ?`),
		seller.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query by seller: %w", err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByID returns one resolution, serving repeats from the LRU cache.
func (s *Store) ByID(ctx context.Context, id int64) (Resolution, error) {
	if r, ok := s.cache.Get(id); ok {
		return r, nil
	}
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+selectCols+` FROM resolutions WHERE id = ?`), id)
	r, err := scanResolution(row)
	if err != nil {
		return Resolution{}, err
	}
	s.cache.Add(id, r)
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResolution(sc scanner) (Resolution, error) {
	var (
		r                  Resolution
		seller             string
		amt, fee, currency string
		tk                 uint64
	)
	if err := sc.Scan(&r.ID, &seller, &r.Index, &amt, &fee, &currency, &tk, &r.Status, &r.ResolvedAt); err != nil {
		return r, fmt.Errorf("history: scan: %w", err)
	}
	var err error
	if r.Seller, err = addr.Parse(seller); err != nil {
		return r, fmt.Errorf("history: stored seller: %w", err)
	}
	if r.Amount, err = amount.Parse(amt); err != nil {
		return r, fmt.Errorf("history: stored amount: %w", err)
	}
	if r.FeeAmount, err = amount.Parse(fee); err != nil {
		return r, fmt.Errorf("history: stored fee: %w", err)
	}
	if r.CurrencyPaid, err = amount.Parse(currency); err != nil {
		return r, fmt.Errorf("history: stored currency: %w", err)
	}
	r.Tick = tick.Tick(tk)
	return r, nil
}
