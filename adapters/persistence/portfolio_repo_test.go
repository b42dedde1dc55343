package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

func TestPortfolioRepo_LoadMissing(t *testing.T) {
	repo := NewPortfolioRepo(NewMemoryKVStore(), portfolio.StorageKey, logger.NewNopLogger())

	_, err := repo.Load(context.Background())

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPortfolioRepo_LoadOrInitPersistsPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKVStore()
	repo := NewPortfolioRepo(store, portfolio.StorageKey, logger.NewNopLogger())

	rec, err := repo.LoadOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, portfolio.NewPlaceholderRecord(), rec)
	assert.Equal(t, 1, store.Writes())

	again, err := repo.LoadOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
	assert.Equal(t, 1, store.Writes())
}

func TestPortfolioRepo_CorruptRecordIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKVStore()
	require.NoError(t, store.Set(ctx, portfolio.StorageKey, []byte("{not json")))
	repo := NewPortfolioRepo(store, portfolio.StorageKey, logger.NewNopLogger())

	rec, err := repo.LoadOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", rec.Profile.Name)

	raw, err := store.Get(ctx, portfolio.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestPortfolioRepo_SaveReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKVStore()
	repo := NewPortfolioRepo(store, "", logger.NewNopLogger())
	img := "data:image/png;base64,AAAA"

	first := portfolio.NewPlaceholderRecord()
	first.Images.Background = &img
	require.NoError(t, repo.Save(ctx, first))

	second := &portfolio.Record{Profile: portfolio.Profile{Name: "Ada", Title: "Eng", Description: "D"}}
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Profile.Name)
	assert.Empty(t, got.Portfolios)
	assert.NotNil(t, got.Portfolios)
	assert.Nil(t, got.Images.Background)

	raw, err := store.Get(ctx, portfolio.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"portfolios":[]`)
}

func TestPortfolioRepo_SaveFailureKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryKVStore()
	repo := NewPortfolioRepo(store, portfolio.StorageKey, logger.NewNopLogger())
	require.NoError(t, repo.Save(ctx, portfolio.NewPlaceholderRecord()))

	store.FailWrites = true
	err := repo.Save(ctx, &portfolio.Record{})
	assert.ErrorIs(t, err, apperror.ErrInternal)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", got.Profile.Name)
}
