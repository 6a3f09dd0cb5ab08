package bigquery

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

func TestSchema(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)

	types := make(map[string]bigquery.FieldType, len(schema))
	for _, f := range schema {
		types[f.Name] = f.Type
	}
	assert.Equal(t, bigquery.IntegerFieldType, types["id"])
	assert.Equal(t, bigquery.DateTimeFieldType, types["timestamp"])
	assert.Equal(t, bigquery.IntegerFieldType, types["amount"])
	assert.Equal(t, bigquery.StringFieldType, types["payment_method"])
	assert.Len(t, schema, 10)
}

func TestTransactionRow_RoundTrip(t *testing.T) {
	tx := domain.Transaction{
		ID:            7,
		Timestamp:     time.Date(2024, time.March, 5, 21, 14, 3, 0, time.UTC),
		Type:          "지출",
		Category:      "식비",
		Description:   "배달의민족",
		Amount:        -23000,
		Currency:      "KRW",
		PaymentMethod: "현대카드",
	}
	assert.Equal(t, tx, NewTransactionRow(tx).Transaction())
}

func TestEncodeNDJSON(t *testing.T) {
	table := domain.Table{
		{ID: 1, Timestamp: time.Date(2024, 3, 5, 21, 14, 0, 0, time.UTC), Category: "Food", Description: "A&B", Amount: -5000},
		{ID: 0, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 500000000, time.UTC), Category: "Salary", Amount: 100},
	}

	data, err := EncodeNDJSON(table)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "2024-03-05 21:14:00", first["timestamp"])
	assert.Equal(t, "A&B", first["description"])
	assert.Equal(t, float64(-5000), first["amount"])

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "2024-03-01 09:00:00.5", second["timestamp"])
}

func TestEncodeNDJSON_Empty(t *testing.T) {
	data, err := EncodeNDJSON(domain.Table{})
	require.NoError(t, err)
	assert.Empty(t, data)
}
