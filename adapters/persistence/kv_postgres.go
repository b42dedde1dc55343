package persistence

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
)

const kvTable = "kv_store"

var psqlKV = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresKVStore struct {
	db *pgxpool.Pool
}

func NewPostgresKVStore(db *pgxpool.Pool) portfolio.KeyValueStore {
	return &postgresKVStore{db: db}
}

// EnsureKVSchema creates the key-value table when migrations have not been run.
func EnsureKVSchema(ctx context.Context, db *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.Exec(ctx, query); err != nil {
		return apperror.NewInternal("failed to ensure kv_store table", err)
	}
	return nil
}

func (s *postgresKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := psqlKV.Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build kv get query", err)
	}

	var value []byte
	if err := s.db.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("stored value", key)
		}
		return nil, apperror.NewInternal("failed to query kv_store", err)
	}
	return value, nil
}

func (s *postgresKVStore) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := psqlKV.Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()").
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build kv set query", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return apperror.NewInternal("failed to upsert kv_store", err)
	}
	return nil
}
