package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
	"github.com/khoahotran/portfolio-editor/pkg/logger"
)

var errCorruptRecord = errors.New("stored portfolio record is not valid JSON")

type portfolioRepo struct {
	store  portfolio.KeyValueStore
	key    string
	logger logger.Logger
}

func NewPortfolioRepo(store portfolio.KeyValueStore, key string, log logger.Logger) portfolio.Repository {
	if key == "" {
		key = portfolio.StorageKey
	}
	return &portfolioRepo{store: store, key: key, logger: log}
}

func (r *portfolioRepo) Load(ctx context.Context) (*portfolio.Record, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, err
	}

	rec := &portfolio.Record{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, apperror.NewInternal(errCorruptRecord.Error(), errors.Join(errCorruptRecord, err))
	}
	rec.Normalize()
	return rec, nil
}

func (r *portfolioRepo) LoadOrInit(ctx context.Context) (*portfolio.Record, error) {
	rec, err := r.Load(ctx)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, errCorruptRecord):
		// Leave the stored bytes alone so they can be recovered by hand.
		r.logger.Warn("Stored portfolio record is corrupt, serving placeholder", zap.String("key", r.key), zap.Error(err))
		return portfolio.NewPlaceholderRecord(), nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	rec = portfolio.NewPlaceholderRecord()
	if err := r.Save(ctx, rec); err != nil {
		return nil, err
	}
	r.logger.Info("Initialized placeholder portfolio record", zap.String("key", r.key))
	return rec, nil
}

func (r *portfolioRepo) Save(ctx context.Context, rec *portfolio.Record) error {
	out := rec.Clone()
	out.Normalize()

	raw, err := json.Marshal(out)
	if err != nil {
		return apperror.NewInternal("failed to marshal portfolio record", err)
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		return err
	}
	r.logger.Debug("Portfolio record written", zap.String("key", r.key), zap.Int("bytes", len(raw)))
	return nil
}
