package storage

import (
	"bytes"
	"context"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// TableObject is the object name of the processed transaction table.
const TableObject = "processed/transactions.parquet"

// transactionRow is the parquet schema of a stored transaction.
// Timestamps are wall-clock microseconds; the export carries no zone. A
// null timestamp_us marks a row without a timestamp.
type transactionRow struct {
	ID            int64  `parquet:"id"`
	TimestampUS   *int64 `parquet:"timestamp_us,optional"`
	Type          string `parquet:"type"`
	Category      string `parquet:"category"`
	Subcategory   string `parquet:"subcategory"`
	Description   string `parquet:"description"`
	Amount        int64  `parquet:"amount"`
	Currency      string `parquet:"currency"`
	PaymentMethod string `parquet:"payment_method"`
	Memo          string `parquet:"memo"`
}

func toRow(tx domain.Transaction) transactionRow {
	var ts *int64
	if !tx.Timestamp.IsZero() {
		us := time.Date(
			tx.Timestamp.Year(), tx.Timestamp.Month(), tx.Timestamp.Day(),
			tx.Timestamp.Hour(), tx.Timestamp.Minute(), tx.Timestamp.Second(),
			tx.Timestamp.Nanosecond(), time.UTC,
		).UnixMicro()
		ts = &us
	}
	return transactionRow{
		ID:            tx.ID,
		TimestampUS:   ts,
		Type:          tx.Type,
		Category:      tx.Category,
		Subcategory:   tx.Subcategory,
		Description:   tx.Description,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		PaymentMethod: tx.PaymentMethod,
		Memo:          tx.Memo,
	}
}

func (r transactionRow) toTransaction() domain.Transaction {
	var ts time.Time
	if r.TimestampUS != nil {
		ts = time.UnixMicro(*r.TimestampUS).UTC()
	}
	return domain.Transaction{
		ID:            r.ID,
		Timestamp:     ts,
		Type:          r.Type,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Description:   r.Description,
		Amount:        r.Amount,
		Currency:      r.Currency,
		PaymentMethod: r.PaymentMethod,
		Memo:          r.Memo,
	}
}

// EncodeTable serializes t as a parquet file.
func EncodeTable(t domain.Table) ([]byte, error) {
	rows := make([]transactionRow, len(t))
	for i, tx := range t {
		rows[i] = toRow(tx)
	}
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		return nil, errors.Wrap(err, "EncodeTable: write parquet")
	}
	return buf.Bytes(), nil
}

// DecodeTable parses a parquet file written by EncodeTable.
func DecodeTable(data []byte) (domain.Table, error) {
	rows, err := parquet.Read[transactionRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "DecodeTable: read parquet")
	}
	t := make(domain.Table, len(rows))
	for i, r := range rows {
		t[i] = r.toTransaction()
	}
	return t, nil
}

// TableRepository stores the transaction table as one parquet object.
type TableRepository struct {
	blob Blob
	log  zerolog.Logger
}

// NewTableRepository creates a table repository over blob.
func NewTableRepository(blob Blob, log zerolog.Logger) *TableRepository {
	return &TableRepository{blob: blob, log: log}
}

// Load returns the stored table, or an empty table when none was saved yet.
func (r *TableRepository) Load(ctx context.Context) (domain.Table, error) {
	data, err := r.blob.Read(ctx, TableObject)
	if errors.Is(err, ErrNotExist) {
		r.log.Warn().Str("object", TableObject).Msg("Transaction table not found, using empty table")
		return domain.Table{}, nil
	}
	if err != nil {
		return nil, domain.WrapStorage("read transactions", err)
	}

	t, err := DecodeTable(data)
	if err != nil {
		r.log.Error().Err(err).Str("object", TableObject).Msg("Failed to decode transaction table")
		return nil, domain.WrapStorage("decode transactions", err)
	}
	return t, nil
}

// Save overwrites the stored table.
func (r *TableRepository) Save(ctx context.Context, t domain.Table) error {
	data, err := EncodeTable(t)
	if err != nil {
		return domain.WrapStorage("encode transactions", err)
	}
	if err := r.blob.Write(ctx, TableObject, data); err != nil {
		return domain.WrapStorage("write transactions", err)
	}
	r.log.Info().Int("rows", len(t)).Str("object", TableObject).Msg("Transaction table saved")
	return nil
}
