package saledb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelines/salevaultd/internal/core/sale"
)

func TestEncodeSmallPayloadStaysRaw(t *testing.T) {
	payload, err := encode(totalsRecord{Treasury: "1", Pool: "2", Queued: "3"})
	require.NoError(t, err)
	assert.Equal(t, flagRaw, payload[0])

	var rec totalsRecord
	require.NoError(t, decode(payload, &rec))
	assert.Equal(t, "2", rec.Pool)
}

func TestEncodeLargePayloadCompresses(t *testing.T) {
	// Hundreds of identical entries compress well past the threshold.
	rec := bookRecord{}
	for i := 0; i < 400; i++ {
		rec.Entries = append(rec.Entries, entryRecord{
			Amount:    "100000",
			Fee:       "5000",
			OpenedAt:  10,
			ExpiresAt: 60,
			Status:    uint8(sale.StatusPending),
		})
	}
	payload, err := encode(rec)
	require.NoError(t, err)
	assert.Equal(t, flagLZ4, payload[0])

	var got bookRecord
	require.NoError(t, decode(payload, &got))
	require.Len(t, got.Entries, 400)
	assert.Equal(t, "100000", got.Entries[399].Amount)
}

func TestDecodeCorruptPayloads(t *testing.T) {
	var rec totalsRecord
	assert.ErrorIs(t, decode(nil, &rec), ErrCorrupt)
	assert.ErrorIs(t, decode([]byte{99, 1, 2}, &rec), ErrCorrupt)
	assert.ErrorIs(t, decode([]byte{flagLZ4, 0, 0}, &rec), ErrCorrupt)
	assert.ErrorIs(t, decode([]byte{flagLZ4, 0, 0, 0, 8, 0xff}, &rec), ErrCorrupt)
}

func TestBookRecordRejectsDerivedStatus(t *testing.T) {
	rec := bookRecord{Entries: []entryRecord{{
		Amount: "1", Fee: "0", OpenedAt: 1, ExpiresAt: 2,
		Status: uint8(sale.StatusSettleReady),
	}}}
	_, err := fromBookRecord(rec)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestBookRecordRejectsMalformedAmount(t *testing.T) {
	rec := bookRecord{Entries: []entryRecord{{
		Amount: "not-a-number", Fee: "0",
		Status: uint8(sale.StatusPending),
	}}}
	_, err := fromBookRecord(rec)
	assert.ErrorIs(t, err, ErrCorrupt)
}
