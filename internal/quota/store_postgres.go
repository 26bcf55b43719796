// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qisumi/inkvault/internal/platform/database/schema"
	"github.com/qisumi/inkvault/internal/platform/dberr"
)

type quotaRepository struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL backed [Store].
func NewStore(pool *pgxpool.Pool) Store {
	return &quotaRepository{pool: pool}
}

func (r *quotaRepository) Get(ctx context.Context, date time.Time, provider string) (int64, bool, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = $1 AND %s = $2
	`,
		schema.CatalogQuotaRecord.WordsDownloaded, schema.CatalogQuotaRecord.Table,
		schema.CatalogQuotaRecord.RecordDate, schema.CatalogQuotaRecord.Provider,
	)

	var downloaded int64
	err := r.pool.QueryRow(ctx, query, date, provider).Scan(&downloaded)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, dberr.Wrap(err, "get quota record")
	}

	return downloaded, true, nil
}

func (r *quotaRepository) Add(ctx context.Context, date time.Time, provider string, words, limit int64) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (%s, %s) DO UPDATE
			SET %s = %s.%s + EXCLUDED.%s, %s = now()
		RETURNING %s
	`,
		schema.CatalogQuotaRecord.Table,
		schema.CatalogQuotaRecord.RecordDate, schema.CatalogQuotaRecord.Provider,
		schema.CatalogQuotaRecord.WordsDownloaded, schema.CatalogQuotaRecord.WordLimit, schema.CatalogQuotaRecord.UpdatedAt,
		schema.CatalogQuotaRecord.RecordDate, schema.CatalogQuotaRecord.Provider,
		schema.CatalogQuotaRecord.WordsDownloaded, schema.CatalogQuotaRecord.Table, schema.CatalogQuotaRecord.WordsDownloaded, schema.CatalogQuotaRecord.WordsDownloaded,
		schema.CatalogQuotaRecord.UpdatedAt,
		schema.CatalogQuotaRecord.WordsDownloaded,
	)

	var total int64
	if err := r.pool.QueryRow(ctx, query, date, provider, words, limit).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "record quota usage")
	}

	return total, nil
}
