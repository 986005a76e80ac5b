package saledb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
)

func testParams() sale.Params {
	return sale.Params{
		Price:          100,
		FeeRate:        5000,
		EscrowDuration: 50,
		Owner:          addr.Address{1},
		TreasuryRole:   addr.Address{2},
		PoolRole:       addr.Address{3},
		TreasuryToken:  addr.Address{4},
	}
}

func testBook() []*sale.SaleEntry {
	return []*sale.SaleEntry{
		{
			Amount:    amount.New(100_000),
			FeeAmount: amount.New(5_000),
			OpenedAt:  10,
			ExpiresAt: 60,
			Status:    sale.StatusPending,
		},
		{
			Amount:    amount.MustParse("340282366920938463463374607431768211456"), // 2^128
			FeeAmount: amount.New(1),
			OpenedAt:  11,
			ExpiresAt: 61,
			Status:    sale.StatusSettled,
		},
	}
}

func runStoreTests(t *testing.T, db DB) {
	ctx := context.Background()
	s := NewStore(db)
	seller := addr.Address{0xaa, 0xbb}

	// Fresh database loads empty.
	state, err := s.LoadState(ctx)
	require.NoError(t, err)
	assert.False(t, state.Present)
	assert.Empty(t, state.Books)

	require.NoError(t, s.PutParams(testParams()))
	require.NoError(t, s.PutTotals(sale.Totals{
		Treasury: amount.New(20_000),
		Pool:     amount.New(80_000),
		Queued:   amount.New(100_000),
	}))
	require.NoError(t, s.PutTick(tick.Tick(42)))
	require.NoError(t, s.PutBook(seller, testBook()))

	state, err = s.LoadState(ctx)
	require.NoError(t, err)
	require.True(t, state.Present)
	assert.Equal(t, testParams(), state.Params)
	assert.Equal(t, "20000", state.Totals.Treasury.String())
	assert.Equal(t, "80000", state.Totals.Pool.String())
	assert.Equal(t, "100000", state.Totals.Queued.String())
	assert.Equal(t, tick.Tick(42), state.Tick)

	book, ok := state.Books[seller]
	require.True(t, ok)
	require.Len(t, book, 2)
	assert.Equal(t, "100000", book[0].Amount.String())
	assert.Equal(t, sale.StatusPending, book[0].Status)
	assert.Equal(t, "340282366920938463463374607431768211456", book[1].Amount.String())
	assert.Equal(t, sale.StatusSettled, book[1].Status)
}

func TestStoreMemDB(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	runStoreTests(t, db)
}

func TestStorePebble(t *testing.T) {
	db, err := OpenPebble(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	runStoreTests(t, db)
}

func TestStoreOverwriteBook(t *testing.T) {
	s := NewStore(NewMemDB())
	defer s.Close()
	seller := addr.Address{0xcc}

	require.NoError(t, s.PutBook(seller, testBook()))
	require.NoError(t, s.PutParams(testParams()))

	// A shorter rewrite wins; books are stored wholesale.
	require.NoError(t, s.PutBook(seller, testBook()[:1]))
	state, err := s.LoadState(context.Background())
	require.NoError(t, err)
	assert.Len(t, state.Books[seller], 1)
}

func TestStoreMultipleSellers(t *testing.T) {
	s := NewStore(NewMemDB())
	defer s.Close()
	require.NoError(t, s.PutParams(testParams()))

	sellers := []addr.Address{{0x01}, {0x02}, {0x03}}
	for _, sl := range sellers {
		require.NoError(t, s.PutBook(sl, testBook()[:1]))
	}

	state, err := s.LoadState(context.Background())
	require.NoError(t, err)
	assert.Len(t, state.Books, 3)
	for _, sl := range sellers {
		assert.Contains(t, state.Books, sl)
	}
}

func TestMemDBIteratorRange(t *testing.T) {
	ctx := context.Background()
	db := NewMemDB()
	defer db.Close()

	for _, k := range []string{"a/1", "b/1", "b/2", "c/1"} {
		require.NoError(t, db.Write(ctx, []byte(k), []byte(k)))
	}

	it, err := db.Iterator(ctx, []byte("b/"), []byte("b0"))
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"b/1", "b/2"}, keys)
}

func TestDBReadMissingKey(t *testing.T) {
	ctx := context.Background()
	db := NewMemDB()
	defer db.Close()
	_, err := db.Read(ctx, []byte("missing"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDBClosedOperations(t *testing.T) {
	ctx := context.Background()
	db := NewMemDB()
	require.NoError(t, db.Close())

	_, err := db.Read(ctx, []byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Write(ctx, []byte("k"), []byte("v")), ErrClosed)
}

func TestDBBatch(t *testing.T) {
	ctx := context.Background()
	db := NewMemDB()
	defer db.Close()
	require.NoError(t, db.Write(ctx, []byte("gone"), []byte("x")))

	require.NoError(t, db.Batch(ctx, []BatchOperation{
		{Type: BatchPut, Key: []byte("kept"), Value: []byte("v")},
		{Type: BatchDelete, Key: []byte("gone")},
	}))

	v, err := db.Read(ctx, []byte("kept"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	_, err = db.Read(ctx, []byte("gone"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
