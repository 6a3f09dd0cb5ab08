package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

func TestLocalBlob(t *testing.T) {
	ctx := context.Background()
	blob := NewLocalBlob(t.TempDir())

	_, err := blob.Read(ctx, "missing/file.bin")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, blob.Write(ctx, "nested/dir/file.bin", []byte("first")))
	require.NoError(t, blob.Write(ctx, "nested/dir/file.bin", []byte("second")))

	data, err := blob.Read(ctx, "nested/dir/file.bin")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(blob.Path("nested/dir/file.bin")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func sampleTable() domain.Table {
	return domain.Table{
		{
			ID:            1,
			Timestamp:     time.Date(2024, time.March, 5, 21, 14, 0, 0, time.UTC),
			Type:          "지출",
			Category:      "식비",
			Subcategory:   "배달",
			Description:   "배달의민족",
			Amount:        -23000,
			Currency:      "KRW",
			PaymentMethod: "현대카드",
			Memo:          "",
		},
		{
			ID:            0,
			Timestamp:     time.Date(2024, time.March, 1, 9, 0, 30, 0, time.UTC),
			Type:          "수입",
			Category:      "급여",
			Description:   "ACME",
			Amount:        3200000,
			Currency:      "KRW",
			PaymentMethod: "입출금통장",
		},
	}
}

func TestTableRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTableRepository(NewLocalBlob(t.TempDir()), zerolog.Nop())

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	want := sampleTable()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp), "row %d timestamp", i)
		got[i].Timestamp = want[i].Timestamp
	}
	assert.Equal(t, want, got)
}

func TestTableRepository_KeepsWallClock(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	table := domain.Table{{ID: 0, Timestamp: time.Date(2024, 3, 5, 23, 30, 0, 0, kst), Amount: -1}}

	data, err := EncodeTable(table)
	require.NoError(t, err)
	got, err := DecodeTable(data)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 23, got[0].Timestamp.Hour())
	assert.Equal(t, 5, got[0].Timestamp.Day())
}

func TestEncodeTable_EpochIsNotMissing(t *testing.T) {
	epoch := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	table := domain.Table{
		{ID: 1, Timestamp: epoch, Amount: -1},
		{ID: 2, Amount: -2},
	}

	data, err := EncodeTable(table)
	require.NoError(t, err)
	got, err := DecodeTable(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.False(t, got[0].Timestamp.IsZero())
	assert.True(t, epoch.Equal(got[0].Timestamp))
	assert.True(t, got[1].Timestamp.IsZero(), "a row without a timestamp stays without one")
}

func TestTableRepository_CorruptObject(t *testing.T) {
	ctx := context.Background()
	blob := NewLocalBlob(t.TempDir())
	require.NoError(t, blob.Write(ctx, TableObject, []byte("definitely not parquet")))

	_, err := NewTableRepository(blob, zerolog.Nop()).Load(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
}

func TestRuleRepository_MissingFile(t *testing.T) {
	repo := NewRuleRepository(NewLocalBlob(t.TempDir()), zerolog.Nop())
	rules, err := repo.Load(context.Background(), true)
	require.NoError(t, err)
	assert.NotNil(t, rules)
	assert.Empty(t, rules)
}

func TestRuleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRuleRepository(NewLocalBlob(t.TempDir()), zerolog.Nop())

	want := []domain.OverspendingRule{
		{
			ID:             domain.Int64(2),
			Name:           "야식 배달",
			CategoryFilter: "식비",
			Enabled:        true,
			WeeklyCount:    domain.Int64(3),
			TimeFilter:     []int{22, 6},
		},
		{
			ID:             domain.Int64(1),
			Name:           "Shopping",
			CategoryFilter: "Shopping",
			Enabled:        false,
			PerTransaction: domain.Int64(100000),
			MonthlyTotal:   domain.Int64(500000),
		},
		{
			Name:           "No id yet",
			CategoryFilter: "Cafe",
			Enabled:        true,
			MonthlyCount:   domain.Int64(20),
		},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	enabled, err := repo.Load(ctx, false)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "야식 배달", enabled[0].Name)
	assert.Equal(t, "No id yet", enabled[1].Name)
}

func TestDecodeRules(t *testing.T) {
	t.Run("enabled defaults to true", func(t *testing.T) {
		rules, err := DecodeRules([]byte(`{"rules":[{"id":1,"name":"a","category_filter":"Food","per_transaction":10}]}`))
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.True(t, rules[0].Enabled)
		assert.Equal(t, int64(10), *rules[0].PerTransaction)
		assert.Nil(t, rules[0].WeeklyCount)
	})

	malformed := map[string]string{
		"not json":          `{"rules": [`,
		"rules not a list":  `{"rules": {"name": "a"}}`,
		"rules missing":     `{"other": []}`,
		"rules null":        `{"rules": null}`,
		"rule wrong shape":  `{"rules": [{"name": 5}]}`,
		"top level is list": `[{"name": "a"}]`,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRules([]byte(body))
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestEncodeRules_Format(t *testing.T) {
	data, err := EncodeRules(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rules\": []\n}\n", string(data))

	data, err = EncodeRules(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rules\": [],\n  \"next_id\": 4\n}\n", string(data))
}

func TestNextRuleID(t *testing.T) {
	assert.Equal(t, int64(1), nextRuleID(nil))
	assert.Equal(t, int64(8), nextRuleID([]domain.OverspendingRule{
		{Name: "a", ID: domain.Int64(3)},
		{Name: "b", ID: domain.Int64(7)},
		{Name: "c"},
	}))
}

func TestRuleRepository_NextIDKeepsHighWaterMark(t *testing.T) {
	ctx := context.Background()
	blob := NewLocalBlob(t.TempDir())
	repo := NewRuleRepository(blob, zerolog.Nop())

	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// A file written before next_id existed falls back to max+1.
	require.NoError(t, blob.Write(ctx, RulesObject, []byte(`{"rules":[{"id":5,"name":"a","category_filter":"Food"}]}`)))
	id, err = repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)

	require.NoError(t, repo.Save(ctx, []domain.OverspendingRule{}))
	id, err = repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), id, "ids of the replaced list still count")

	require.NoError(t, repo.Save(ctx, []domain.OverspendingRule{{ID: domain.Int64(9), Name: "b", CategoryFilter: "Cafe"}}))
	require.NoError(t, repo.Save(ctx, []domain.OverspendingRule{{ID: domain.Int64(2), Name: "c", CategoryFilter: "Cafe"}}))
	id, err = repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)

	rules, err := repo.Load(ctx, true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, int64(2), rules[0].RuleID())
}

func TestRuleRepository_SaveReplacesBrokenFile(t *testing.T) {
	ctx := context.Background()
	blob := NewLocalBlob(t.TempDir())
	require.NoError(t, blob.Write(ctx, RulesObject, []byte("{broken")))
	repo := NewRuleRepository(blob, zerolog.Nop())

	_, err := repo.NextID(ctx)
	assert.True(t, domain.IsValidation(err))

	require.NoError(t, repo.Save(ctx, []domain.OverspendingRule{{ID: domain.Int64(1), Name: "a", CategoryFilter: "Food"}}))
	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType(RulesObject))
	assert.Equal(t, "application/octet-stream", contentType(TableObject))
}
