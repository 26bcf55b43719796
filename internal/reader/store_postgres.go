// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qisumi/inkvault/internal/platform/database/schema"
	"github.com/qisumi/inkvault/internal/platform/dberr"
	"github.com/qisumi/inkvault/pkg/uuid"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL backed [Store].
func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

// # Progress

func progressColumnsSQL() string {
	c := schema.ReaderProgress
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s", c.ID, c.UserID, c.BookID, c.ChapterID, c.DeviceID, c.OffsetPx, c.Percent, c.UpdatedAt)
}

func scanProgress(row pgx.Row) (*Progress, error) {
	var p Progress
	err := row.Scan(&p.ID, &p.UserID, &p.BookID, &p.ChapterID, &p.DeviceID, &p.OffsetPx, &p.Percent, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *postgresStore) GetProgress(ctx context.Context, userID, bookID, deviceID string) (*Progress, error) {
	c := schema.ReaderProgress
	var query string
	args := []any{userID, bookID}
	if deviceID != "" {
		query = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3",
			progressColumnsSQL(), c.Table, c.UserID, c.BookID, c.DeviceID)
		args = append(args, deviceID)
	} else {
		query = fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC LIMIT 1",
			progressColumnsSQL(), c.Table, c.UserID, c.BookID, c.UpdatedAt)
	}

	p, err := scanProgress(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "get progress")
	}
	return p, nil
}

func (s *postgresStore) ListDeviceProgress(ctx context.Context, userID, bookID string) ([]*Progress, error) {
	c := schema.ReaderProgress
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC",
		progressColumnsSQL(), c.Table, c.UserID, c.BookID, c.UpdatedAt)

	rows, err := s.pool.Query(ctx, query, userID, bookID)
	if err != nil {
		return nil, dberr.Wrap(err, "list device progress")
	}
	defer rows.Close()

	var out []*Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan progress")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProgress implements the cross-device upsert: one row per (user,
// book), keyed by the unique constraint on those columns.
func (s *postgresStore) UpsertProgress(ctx context.Context, p *Progress) error {
	c := schema.ReaderProgress
	if p.ID == "" {
		p.ID = uuid.New()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (%s, %s) DO UPDATE SET
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s
	`,
		c.Table, c.ID, c.UserID, c.BookID, c.ChapterID, c.DeviceID, c.OffsetPx, c.Percent, c.UpdatedAt,
		c.UserID, c.BookID,
		c.ChapterID, c.ChapterID, c.DeviceID, c.DeviceID, c.OffsetPx, c.OffsetPx,
		c.Percent, c.Percent, c.UpdatedAt, c.UpdatedAt,
	)
	_, err := s.pool.Exec(ctx, query, p.ID, p.UserID, p.BookID, p.ChapterID, p.DeviceID, p.OffsetPx, p.Percent, p.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "upsert progress")
	}
	return nil
}

func (s *postgresStore) DeleteProgress(ctx context.Context, userID, bookID, deviceID string) (bool, error) {
	c := schema.ReaderProgress
	var query string
	args := []any{userID, bookID}
	if deviceID != "" {
		query = fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3", c.Table, c.UserID, c.BookID, c.DeviceID)
		args = append(args, deviceID)
	} else {
		query = fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2", c.Table, c.UserID, c.BookID)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, dberr.Wrap(err, "delete progress")
	}
	return tag.RowsAffected() > 0, nil
}

// # History

func (s *postgresStore) AppendHistory(ctx context.Context, h *HistoryEntry) error {
	c := schema.ReaderHistory
	if h.ID == "" {
		h.ID = uuid.New()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.Table, c.ID, c.UserID, c.BookID, c.ChapterID, c.DeviceID, c.Percent, c.CreatedAt)
	_, err := s.pool.Exec(ctx, query, h.ID, h.UserID, h.BookID, h.ChapterID, h.DeviceID, h.Percent, h.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "append history")
	}
	return nil
}

func (s *postgresStore) ListHistory(ctx context.Context, userID, bookID string, limit int) ([]*HistoryEntry, error) {
	c := schema.ReaderHistory
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC LIMIT $3",
		c.ID, c.UserID, c.BookID, c.ChapterID, c.DeviceID, c.Percent, c.CreatedAt, c.Table, c.UserID, c.BookID, c.CreatedAt)

	rows, err := s.pool.Query(ctx, query, userID, bookID, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "list history")
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.BookID, &h.ChapterID, &h.DeviceID, &h.Percent, &h.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan history")
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

func (s *postgresStore) ClearHistory(ctx context.Context, userID, bookID string) (int, error) {
	c := schema.ReaderHistory
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2", c.Table, c.UserID, c.BookID)
	tag, err := s.pool.Exec(ctx, query, userID, bookID)
	if err != nil {
		return 0, dberr.Wrap(err, "clear history")
	}
	return int(tag.RowsAffected()), nil
}

// # Bookmark

func bookmarkColumnsSQL() string {
	c := schema.ReaderBookmark
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s", c.ID, c.UserID, c.BookID, c.ChapterID, c.Percent, c.Note, c.CreatedAt)
}

func scanBookmark(row pgx.Row) (*Bookmark, error) {
	var b Bookmark
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.ChapterID, &b.Percent, &b.Note, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *postgresStore) CreateBookmark(ctx context.Context, b *Bookmark) error {
	c := schema.ReaderBookmark
	if b.ID == "" {
		b.ID = uuid.New()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.Table, c.ID, c.UserID, c.BookID, c.ChapterID, c.Percent, c.Note, c.CreatedAt)
	_, err := s.pool.Exec(ctx, query, b.ID, b.UserID, b.BookID, b.ChapterID, b.Percent, b.Note, b.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create bookmark")
	}
	return nil
}

func (s *postgresStore) ListBookmarks(ctx context.Context, userID, bookID string) ([]*Bookmark, error) {
	c := schema.ReaderBookmark
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC",
		bookmarkColumnsSQL(), c.Table, c.UserID, c.BookID, c.CreatedAt)

	rows, err := s.pool.Query(ctx, query, userID, bookID)
	if err != nil {
		return nil, dberr.Wrap(err, "list bookmarks")
	}
	defer rows.Close()

	var out []*Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan bookmark")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *postgresStore) GetBookmark(ctx context.Context, id string) (*Bookmark, error) {
	c := schema.ReaderBookmark
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", bookmarkColumnsSQL(), c.Table, c.ID)
	b, err := scanBookmark(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "get bookmark")
	}
	return b, nil
}

func (s *postgresStore) UpdateBookmark(ctx context.Context, b *Bookmark) error {
	c := schema.ReaderBookmark
	query := fmt.Sprintf("UPDATE %s SET %s = $1, %s = $2 WHERE %s = $3", c.Table, c.Note, c.Percent, c.ID)
	_, err := s.pool.Exec(ctx, query, b.Note, b.Percent, b.ID)
	if err != nil {
		return dberr.Wrap(err, "update bookmark")
	}
	return nil
}

func (s *postgresStore) DeleteBookmark(ctx context.Context, userID, bookID, bookmarkID string) (bool, error) {
	c := schema.ReaderBookmark
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3", c.Table, c.ID, c.UserID, c.BookID)
	tag, err := s.pool.Exec(ctx, query, bookmarkID, userID, bookID)
	if err != nil {
		return false, dberr.Wrap(err, "delete bookmark")
	}
	return tag.RowsAffected() > 0, nil
}
