package saledb

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
	"github.com/ugorji/go/codec"

	"github.com/avelines/salevaultd/internal/core/addr"
	"github.com/avelines/salevaultd/internal/core/amount"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
)

// Records are msgpack. Payloads at or above compressThreshold get an lz4
// block body; a one-byte flag plus the original length prefix the payload so
// readers can size the destination buffer exactly.
const (
	flagRaw byte = 0
	flagLZ4 byte = 1

	compressThreshold = 512
)

var msgpackHandle codec.MsgpackHandle

type entryRecord struct {
	Amount    string `codec:"a"`
	Fee       string `codec:"f"`
	OpenedAt  uint64 `codec:"o"`
	ExpiresAt uint64 `codec:"e"`
	Status    uint8  `codec:"s"`
}

type bookRecord struct {
	Entries []entryRecord `codec:"entries"`
}

type totalsRecord struct {
	Treasury string `codec:"treasury"`
	Pool     string `codec:"pool"`
	Queued   string `codec:"queued"`
}

type paramsRecord struct {
	Price          uint64 `codec:"price"`
	FeeRate        uint64 `codec:"fee_rate"`
	EscrowDuration uint64 `codec:"escrow_duration"`
	Owner          string `codec:"owner"`
	TreasuryRole   string `codec:"treasury_role"`
	PoolRole       string `codec:"pool_role"`
	TreasuryToken  string `codec:"treasury_token"`
}

func encode(v any) ([]byte, error) {
	var raw []byte
	if err := codec.NewEncoderBytes(&raw, &msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	if len(raw) < compressThreshold {
		return append([]byte{flagRaw}, raw...), nil
	}

	bound := lz4.CompressBlockBound(len(raw))
	compressed := make([]byte, bound)
	n, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil || n == 0 || n >= len(raw) {
		// Incompressible; store as-is.
		return append([]byte{flagRaw}, raw...), nil
	}

	out := make([]byte, 0, 5+n)
	out = append(out, flagLZ4)
	out = binary.BigEndian.AppendUint32(out, uint32(len(raw)))
	out = append(out, compressed[:n]...)
	return out, nil
}

func decode(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", ErrCorrupt)
	}
	var raw []byte
	switch data[0] {
	case flagRaw:
		raw = data[1:]
	case flagLZ4:
		if len(data) < 5 {
			return fmt.Errorf("%w: truncated lz4 header", ErrCorrupt)
		}
		size := binary.BigEndian.Uint32(data[1:5])
		raw = make([]byte, size)
		n, err := lz4.UncompressBlock(data[5:], raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = raw[:n]
	default:
		return fmt.Errorf("%w: unknown flag %d", ErrCorrupt, data[0])
	}
	if err := codec.NewDecoderBytes(raw, &msgpackHandle).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func toBookRecord(book []*sale.SaleEntry) bookRecord {
	rec := bookRecord{Entries: make([]entryRecord, len(book))}
	for i, e := range book {
		rec.Entries[i] = entryRecord{
			Amount:    e.Amount.String(),
			Fee:       e.FeeAmount.String(),
			OpenedAt:  uint64(e.OpenedAt),
			ExpiresAt: uint64(e.ExpiresAt),
			Status:    uint8(e.Status),
		}
	}
	return rec
}

func fromBookRecord(rec bookRecord) ([]*sale.SaleEntry, error) {
	book := make([]*sale.SaleEntry, len(rec.Entries))
	for i, er := range rec.Entries {
		amt, err := amount.Parse(er.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: entry amount: %v", ErrCorrupt, err)
		}
		fee, err := amount.Parse(er.Fee)
		if err != nil {
			return nil, fmt.Errorf("%w: entry fee: %v", ErrCorrupt, err)
		}
		st := sale.Status(er.Status)
		if !st.Persistable() {
			return nil, fmt.Errorf("%w: stored derived status %d", ErrCorrupt, er.Status)
		}
		book[i] = &sale.SaleEntry{
			Amount:    amt,
			FeeAmount: fee,
			OpenedAt:  tick.Tick(er.OpenedAt),
			ExpiresAt: tick.Tick(er.ExpiresAt),
			Status:    st,
		}
	}
	return book, nil
}

func toTotalsRecord(t sale.Totals) totalsRecord {
	return totalsRecord{
		Treasury: t.Treasury.String(),
		Pool:     t.Pool.String(),
		Queued:   t.Queued.String(),
	}
}

func fromTotalsRecord(rec totalsRecord) (sale.Totals, error) {
	var (
		t   sale.Totals
		err error
	)
	if t.Treasury, err = amount.Parse(rec.Treasury); err != nil {
		return t, fmt.Errorf("%w: treasury total: %v", ErrCorrupt, err)
	}
	if t.Pool, err = amount.Parse(rec.Pool); err != nil {
		return t, fmt.Errorf("%w: pool total: %v", ErrCorrupt, err)
	}
	if t.Queued, err = amount.Parse(rec.Queued); err != nil {
		return t, fmt.Errorf("%w: queued total: %v", ErrCorrupt, err)
	}
	return t, nil
}

func toParamsRecord(p sale.Params) paramsRecord {
	return paramsRecord{
		Price:          p.Price,
		FeeRate:        p.FeeRate,
		EscrowDuration: uint64(p.EscrowDuration),
		Owner:          p.Owner.String(),
		TreasuryRole:   p.TreasuryRole.String(),
		PoolRole:       p.PoolRole.String(),
		TreasuryToken:  p.TreasuryToken.String(),
	}
}

func fromParamsRecord(rec paramsRecord) (sale.Params, error) {
	p := sale.Params{
		Price:          rec.Price,
		FeeRate:        rec.FeeRate,
		EscrowDuration: tick.Tick(rec.EscrowDuration),
	}
	var err error
	if p.Owner, err = addr.Parse(rec.Owner); err != nil {
		return p, fmt.Errorf("%w: owner: %v", ErrCorrupt, err)
	}
	if p.TreasuryRole, err = addr.Parse(rec.TreasuryRole); err != nil {
		return p, fmt.Errorf("%w: treasury role: %v", ErrCorrupt, err)
	}
	if p.PoolRole, err = addr.Parse(rec.PoolRole); err != nil {
		return p, fmt.Errorf("%w: pool role: %v", ErrCorrupt, err)
	}
	if p.TreasuryToken, err = addr.Parse(rec.TreasuryToken); err != nil {
		return p, fmt.Errorf("%w: treasury token: %v", ErrCorrupt, err)
	}
	return p, nil
}
