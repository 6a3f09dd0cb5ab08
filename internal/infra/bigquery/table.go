package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

const (
	DefaultDataset = "finance"
	DefaultTable   = "transactions"

	datetimeLayout = "2006-01-02 15:04:05.999999"
)

// TransactionRow is the BigQuery schema of a stored transaction. Every
// column is REQUIRED; timestamps are DATETIME since the export carries no zone.
type TransactionRow struct {
	ID            int64          `bigquery:"id" json:"id"`
	Timestamp     civil.DateTime `bigquery:"timestamp" json:"-"`
	Type          string         `bigquery:"type" json:"type"`
	Category      string         `bigquery:"category" json:"category"`
	Subcategory   string         `bigquery:"subcategory" json:"subcategory"`
	Description   string         `bigquery:"description" json:"description"`
	Amount        int64          `bigquery:"amount" json:"amount"`
	Currency      string         `bigquery:"currency" json:"currency"`
	PaymentMethod string         `bigquery:"payment_method" json:"payment_method"`
	Memo          string         `bigquery:"memo" json:"memo"`
}

// Schema returns the table schema inferred from TransactionRow.
func Schema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return nil, fmt.Errorf("Schema: infer: %w", err)
	}
	return schema, nil
}

// NewTransactionRow converts a transaction to its stored form.
func NewTransactionRow(tx domain.Transaction) TransactionRow {
	return TransactionRow{
		ID:            tx.ID,
		Timestamp:     civil.DateTimeOf(tx.Timestamp.Truncate(time.Microsecond)),
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

// Transaction converts the stored row back to a transaction.
func (r TransactionRow) Transaction() domain.Transaction {
	return domain.Transaction{
		ID:            r.ID,
		Timestamp:     r.Timestamp.In(time.UTC),
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

// MarshalJSON renders the row as one newline-delimited JSON load record.
func (r TransactionRow) MarshalJSON() ([]byte, error) {
	type plain TransactionRow
	return json.Marshal(struct {
		plain
		Timestamp string `json:"timestamp"`
	}{plain(r), r.Timestamp.In(time.UTC).Format(datetimeLayout)})
}

// EncodeNDJSON renders the table as a newline-delimited JSON load file.
func EncodeNDJSON(t domain.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, tx := range t {
		if err := enc.Encode(NewTransactionRow(tx)); err != nil {
			return nil, fmt.Errorf("EncodeNDJSON: row %d: %w", tx.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// TableRepository keeps the transaction table in BigQuery. It holds a
// shared client for its lifetime.
type TableRepository struct {
	client  *bigquery.Client
	dataset string
	table   string
	log     zerolog.Logger
}

// NewTableRepository creates a repository with its own client.
func NewTableRepository(ctx context.Context, projectID, dataset, table, credentialsFile string, log zerolog.Logger) (*TableRepository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewTableRepository: creating client: %w", err)
	}
	return NewTableRepositoryWithClient(client, dataset, table, log), nil
}

// NewTableRepositoryWithClient creates a repository over an existing client.
func NewTableRepositoryWithClient(client *bigquery.Client, dataset, table string, log zerolog.Logger) *TableRepository {
	if dataset == "" {
		dataset = DefaultDataset
	}
	if table == "" {
		table = DefaultTable
	}
	return &TableRepository{client: client, dataset: dataset, table: table, log: log}
}

// Close closes the BigQuery client connection.
func (r *TableRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *TableRepository) fqtn() string {
	return fmt.Sprintf("`%s.%s.%s`", r.client.Project(), r.dataset, r.table)
}

// EnsureTable creates the dataset and the transactions table when missing.
func (r *TableRepository) EnsureTable(ctx context.Context) error {
	ds := r.client.Dataset(r.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("EnsureTable: creating dataset %s: %w", r.dataset, err)
		}
		r.log.Info().Str("dataset", r.dataset).Msg("Dataset created")
	}

	tbl := ds.Table(r.table)
	if _, err := tbl.Metadata(ctx); err == nil {
		return nil
	}
	schema, err := Schema()
	if err != nil {
		return err
	}
	if err := tbl.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("EnsureTable: creating table %s: %w", r.table, err)
	}
	r.log.Info().Str("dataset", r.dataset).Str("table", r.table).Msg("Table created")
	return nil
}

// Load reads the whole table, newest first.
func (r *TableRepository) Load(ctx context.Context) (domain.Table, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			id,
			timestamp,
			type,
			category,
			subcategory,
			description,
			amount,
			currency,
			payment_method,
			memo
		FROM %s
		ORDER BY timestamp DESC, id DESC
	`, r.fqtn()))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, domain.WrapStorage("load transactions", fmt.Errorf("TableRepository.Load: query read: %w", err))
	}

	t := domain.Table{}
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, domain.WrapStorage("load transactions", fmt.Errorf("TableRepository.Load: iter next: %w", err))
		}
		t = append(t, row.Transaction())
	}
	return t, nil
}

// Save replaces the table contents through a truncating load job.
func (r *TableRepository) Save(ctx context.Context, t domain.Table) error {
	data, err := EncodeNDJSON(t)
	if err != nil {
		return domain.WrapStorage("encode transactions", err)
	}
	schema, err := Schema()
	if err != nil {
		return domain.WrapStorage("encode transactions", err)
	}

	src := bigquery.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bigquery.JSON
	src.Schema = schema

	loader := r.client.Dataset(r.dataset).Table(r.table).LoaderFrom(src)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return domain.WrapStorage("save transactions", fmt.Errorf("TableRepository.Save: running load job: %w", err))
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return domain.WrapStorage("save transactions", fmt.Errorf("TableRepository.Save: waiting for job: %w", err))
	}
	if err := status.Err(); err != nil {
		return domain.WrapStorage("save transactions", fmt.Errorf("TableRepository.Save: job error: %w", err))
	}

	r.log.Info().Int("rows", len(t)).Str("table", r.table).Msg("Transaction table saved")
	return nil
}
