package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/spending-patterns/internal/domain"
	"github.com/dvloznov/spending-patterns/internal/storage"
)

type mockTarget struct {
	mock.Mock
}

func (m *mockTarget) EnsureTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTarget) Save(ctx context.Context, t domain.Table) error {
	return m.Called(ctx, t).Error(0)
}

func seedDir(t *testing.T, rows domain.Table) string {
	t.Helper()
	dir := t.TempDir()
	repo := storage.NewTableRepository(storage.NewLocalBlob(dir), zerolog.Nop())
	require.NoError(t, repo.Save(context.Background(), rows))
	return dir
}

func TestMigrate_EnsureOnly(t *testing.T) {
	ctx := context.Background()
	target := &mockTarget{}
	target.On("EnsureTable", ctx).Return(nil)

	require.NoError(t, migrate(ctx, target, Options{}, zerolog.Nop()))
	target.AssertExpectations(t)
	target.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMigrate_CopiesLocalTable(t *testing.T) {
	ctx := context.Background()
	rows := domain.Table{
		{ID: 1, Timestamp: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), Category: "Food", Description: "Kimbap", Amount: -8000, PaymentMethod: "Card"},
		{ID: 0, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Category: "Salary", Description: "ACME", Amount: 3200000, PaymentMethod: "Bank"},
	}
	dir := seedDir(t, rows)

	target := &mockTarget{}
	target.On("EnsureTable", ctx).Return(nil)
	target.On("Save", ctx, mock.MatchedBy(func(t domain.Table) bool {
		return len(t) == 2 && t[0].Description == "Kimbap"
	})).Return(nil)

	require.NoError(t, migrate(ctx, target, Options{FromDir: dir}, zerolog.Nop()))
	target.AssertExpectations(t)
}

func TestMigrate_DryRun(t *testing.T) {
	ctx := context.Background()
	dir := seedDir(t, domain.Table{{ID: 0, Timestamp: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), Amount: -1}})

	target := &mockTarget{}
	require.NoError(t, migrate(ctx, target, Options{FromDir: dir, DryRun: true}, zerolog.Nop()))
	target.AssertNotCalled(t, "EnsureTable", mock.Anything)
	target.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMigrate_EmptyLocalTable(t *testing.T) {
	ctx := context.Background()
	target := &mockTarget{}
	target.On("EnsureTable", ctx).Return(nil)

	require.NoError(t, migrate(ctx, target, Options{FromDir: t.TempDir()}, zerolog.Nop()))
	target.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMigrate_Errors(t *testing.T) {
	ctx := context.Background()

	target := &mockTarget{}
	target.On("EnsureTable", ctx).Return(errors.New("permission denied"))
	err := migrate(ctx, target, Options{}, zerolog.Nop())
	assert.ErrorContains(t, err, "ensure table")

	target = &mockTarget{}
	target.On("EnsureTable", ctx).Return(nil)
	err = migrate(ctx, target, Options{FromDir: filepath.Join(t.TempDir(), "missing")}, zerolog.Nop())
	assert.ErrorContains(t, err, "data dir")
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
