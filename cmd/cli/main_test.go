package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/spending-patterns/internal/app"
	"github.com/dvloznov/spending-patterns/internal/config"
	"github.com/dvloznov/spending-patterns/internal/domain"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.FromEnv(func(key string) string {
		if key == "DATA_DIR" {
			return dir
		}
		return ""
	})
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func writeExport(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "가계부 내역"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"날짜", "시간", "타입", "대분류", "소분류", "내용", "금액", "화폐", "결제수단", "메모"},
		{"2024-03-04", "08:30", "지출", "카페", "", "스타벅스", -5500, "KRW", "현대카드", ""},
		{"2024-03-11", "08:40", "지출", "카페", "", "스타벅스", -5500, "KRW", "현대카드", ""},
		{"2024-03-18", "08:35", "지출", "카페", "", "스타벅스", -5500, "KRW", "현대카드", ""},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "march.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func runJSON(t *testing.T, a *app.App, args ...string) map[string]interface{} {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), a, args, &out))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body
}

func TestRun_IngestThenAnalyze(t *testing.T) {
	a := newTestApp(t)

	body := runJSON(t, a, "ingest", "-file", writeExport(t))
	assert.Equal(t, float64(3), body["row_count"])

	body = runJSON(t, a, "recurring", "-min-count", "3")
	assert.Equal(t, float64(1), body["count"])

	body = runJSON(t, a, "stats", "-year", "2024", "-month", "3")
	assert.NotEmpty(t, body)

	body = runJSON(t, a, "personality", "-year", "2024", "-month", "3")
	assert.Contains(t, body, "scores")

	body = runJSON(t, a, "time-based")
	assert.Contains(t, body, "patterns")

	body = runJSON(t, a, "savings")
	assert.Contains(t, body, "opportunities")
}

func TestRun_Rules(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Rules.Save(context.Background(), []domain.OverspendingRule{
		{ID: domain.Int64(1), Name: "Cafe", CategoryFilter: "카페", Enabled: true, WeeklyCount: domain.Int64(2)},
		{ID: domain.Int64(2), Name: "Taxi", CategoryFilter: "교통", Enabled: false},
	}))

	body := runJSON(t, a, "rules")
	assert.Len(t, body["rules"], 1)

	body = runJSON(t, a, "rules", "-all")
	assert.Len(t, body["rules"], 2)

	body = runJSON(t, a, "overspending")
	assert.Equal(t, float64(0), body["count"])
}

func TestRun_Errors(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	err := run(ctx, a, nil, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errUsage))

	err = run(ctx, a, []string{"nope"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errUsage))

	err = run(ctx, a, []string{"ingest"}, &bytes.Buffer{})
	assert.Error(t, err)

	err = run(ctx, a, []string{"ingest", "-file", filepath.Join(t.TempDir(), "missing.xlsx")}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	err = run(ctx, a, []string{"stats", "-year", "2024", "-month", "13"}, &bytes.Buffer{})
	assert.True(t, domain.IsValidation(err))

	err = run(ctx, a, []string{"personality", "-start", "2024/01/01"}, &bytes.Buffer{})
	assert.True(t, domain.IsValidation(err))
}
