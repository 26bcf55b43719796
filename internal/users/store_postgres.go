// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qisumi/inkvault/internal/platform/database/schema"
	"github.com/qisumi/inkvault/internal/platform/dberr"
	"github.com/qisumi/inkvault/pkg/uuid"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL-backed [Store].
func NewStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func userColumnsSQL() string {
	c := schema.ReaderUser
	return strings.Join([]string{c.ID, c.Username, c.CreatedAt}, ", ")
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *postgresStore) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New()
	}
	c := schema.ReaderUser
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`, c.Table, c.ID, c.Username)
	if _, err := s.pool.Exec(ctx, query, user.ID, user.Username); err != nil {
		return dberr.Wrap(err, "create user")
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, id string) (*User, error) {
	c := schema.ReaderUser
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumnsSQL(), c.Table, c.ID)
	row := s.pool.QueryRow(ctx, query, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "get user")
	}
	return user, nil
}

func (s *postgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	c := schema.ReaderUser
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, userColumnsSQL(), c.Table, c.Username)
	row := s.pool.QueryRow(ctx, query, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "get user by username")
	}
	return user, nil
}

func (s *postgresStore) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	c := schema.ReaderUser

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c.Table)
	if err := s.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count users")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC LIMIT $1 OFFSET $2`,
		userColumnsSQL(), c.Table, c.CreatedAt)
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list users")
	}
	defer rows.Close()

	results := make([]*User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan user")
		}
		results = append(results, user)
	}
	return results, total, nil
}

func (s *postgresStore) Update(ctx context.Context, id, username string) (*User, error) {
	c := schema.ReaderUser
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1 RETURNING %s`,
		c.Table, c.Username, c.ID, userColumnsSQL())
	row := s.pool.QueryRow(ctx, query, id, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, dberr.Wrap(err, "update user")
	}
	return user, nil
}

func (s *postgresStore) Delete(ctx context.Context, id string) (bool, error) {
	c := schema.ReaderUser
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, c.Table, c.ID)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "delete user")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *postgresStore) ListSavedBooks(ctx context.Context, userID string) ([]*SavedBook, error) {
	c := schema.ReaderUserBook
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		c.ID, c.UserID, c.BookID, c.CreatedAt, c.Table, c.UserID, c.CreatedAt)
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list saved books")
	}
	defer rows.Close()

	results := make([]*SavedBook, 0)
	for rows.Next() {
		var b SavedBook
		if err := rows.Scan(&b.ID, &b.UserID, &b.BookID, &b.CreatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan saved book")
		}
		results = append(results, &b)
	}
	return results, nil
}

func (s *postgresStore) SaveBook(ctx context.Context, userID, bookID string) (*SavedBook, error) {
	c := schema.ReaderUserBook
	id := uuid.New()
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s)
		VALUES ($1, $2, $3)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s
		RETURNING %s, %s, %s, %s
	`, c.Table, c.ID, c.UserID, c.BookID, c.UserID, c.BookID, c.UserID, c.UserID,
		c.ID, c.UserID, c.BookID, c.CreatedAt)

	row := s.pool.QueryRow(ctx, query, id, userID, bookID)
	var b SavedBook
	if err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.CreatedAt); err != nil {
		return nil, dberr.Wrap(err, "save book")
	}
	return &b, nil
}

func (s *postgresStore) RemoveSavedBook(ctx context.Context, userID, bookID string) (bool, error) {
	c := schema.ReaderUserBook
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, c.Table, c.UserID, c.BookID)
	tag, err := s.pool.Exec(ctx, query, userID, bookID)
	if err != nil {
		return false, dberr.Wrap(err, "remove saved book")
	}
	return tag.RowsAffected() > 0, nil
}
