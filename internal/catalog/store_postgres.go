// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/platform/database/schema"
	"github.com/qisumi/inkvault/internal/platform/dberr"
)

// # Book Repository

type bookRepository struct {
	pool *pgxpool.Pool
}

// NewBookStore constructs a PostgreSQL backed [BookStore].
func NewBookStore(pool *pgxpool.Pool) BookStore {
	return &bookRepository{pool: pool}
}

func (r *bookRepository) Create(ctx context.Context, b *Book) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		schema.CatalogBook.Table,
		schema.CatalogBook.ID, schema.CatalogBook.Provider, schema.CatalogBook.ProviderBookID,
		schema.CatalogBook.Title, schema.CatalogBook.Author, schema.CatalogBook.CoverRef,
		schema.CatalogBook.TotalChapters, schema.CatalogBook.DownloadStatus, schema.CatalogBook.CreatedAt,
	)
	_, err := r.pool.Exec(ctx, query, b.ID, b.Provider, b.ProviderBookID, b.Title, b.Author,
		b.CoverRef, b.TotalChapters, b.DownloadStatus, b.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "create book")
	}
	return nil
}

func bookColumnsSQL() string {
	c := schema.CatalogBook
	return strings.Join([]string{c.ID, c.Provider, c.ProviderBookID, c.Title, c.Author, c.CoverRef,
		c.TotalChapters, c.DownloadedChapters, c.DownloadStatus, c.CreatedAt, c.UpdatedAt}, ", ")
}

func scanBook(row pgx.Row) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Provider, &b.ProviderBookID, &b.Title, &b.Author, &b.CoverRef,
		&b.TotalChapters, &b.DownloadedChapters, &b.DownloadStatus, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookRepository) Get(ctx context.Context, id string) (*Book, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", bookColumnsSQL(), schema.CatalogBook.Table, schema.CatalogBook.ID)
	b, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get book")
	}
	return b, nil
}

func (r *bookRepository) GetByProvider(ctx context.Context, provider, providerBookID string) (*Book, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2",
		bookColumnsSQL(), schema.CatalogBook.Table, schema.CatalogBook.Provider, schema.CatalogBook.ProviderBookID)
	b, err := scanBook(r.pool.QueryRow(ctx, query, provider, providerBookID))
	if err != nil {
		return nil, dberr.Wrap(err, "get book by provider")
	}
	return b, nil
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter, limit, offset int) ([]*Book, int, error) {
	c := schema.CatalogBook
	var b strings.Builder
	var args []any
	argN := 1

	b.WriteString(fmt.Sprintf("SELECT %s, COUNT(*) OVER() AS total_count FROM %s WHERE 1=1", bookColumnsSQL(), c.Table))

	if filter.Provider != "" {
		b.WriteString(fmt.Sprintf(" AND %s = $%d", c.Provider, argN))
		args = append(args, filter.Provider)
		argN++
	}
	if filter.Status != "" {
		b.WriteString(fmt.Sprintf(" AND %s = $%d", c.DownloadStatus, argN))
		args = append(args, filter.Status)
		argN++
	}
	if filter.Search != "" {
		b.WriteString(fmt.Sprintf(" AND (%s ILIKE $%d OR %s ILIKE $%d)", c.Title, argN, c.Author, argN))
		args = append(args, "%"+filter.Search+"%")
		argN++
	}

	b.WriteString(fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d OFFSET $%d", c.CreatedAt, argN, argN+1))
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list books")
	}
	defer rows.Close()

	var books []*Book
	total := 0
	for rows.Next() {
		var book Book
		if err := rows.Scan(&book.ID, &book.Provider, &book.ProviderBookID, &book.Title, &book.Author,
			&book.CoverRef, &book.TotalChapters, &book.DownloadedChapters, &book.DownloadStatus,
			&book.CreatedAt, &book.UpdatedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "scan book")
		}
		books = append(books, &book)
	}
	return books, total, nil
}

func (r *bookRepository) UpdateMetadata(ctx context.Context, b *Book) error {
	c := schema.CatalogBook
	query := fmt.Sprintf(`UPDATE %s SET %s=$1, %s=$2, %s=$3, %s=$4, %s=now() WHERE %s=$5`,
		c.Table, c.Title, c.Author, c.CoverRef, c.TotalChapters, c.UpdatedAt, c.ID)
	tag, err := r.pool.Exec(ctx, query, b.Title, b.Author, b.CoverRef, b.TotalChapters, b.ID)
	if err != nil {
		return dberr.Wrap(err, "update book metadata")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}
	return nil
}

func (r *bookRepository) UpdateDownloadStatus(ctx context.Context, id string, status BookDownloadStatus) error {
	c := schema.CatalogBook
	query := fmt.Sprintf(`UPDATE %s SET %s=$1, %s=now() WHERE %s=$2`, c.Table, c.DownloadStatus, c.UpdatedAt, c.ID)
	_, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return dberr.Wrap(err, "update book status")
	}
	return nil
}

func (r *bookRepository) RecomputeDownloadedChapters(ctx context.Context, id string) error {
	bc := schema.CatalogBook
	cc := schema.CatalogChapter
	query := fmt.Sprintf(`
		UPDATE %s SET %s = (
			SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = '%s'
		), %s = now()
		WHERE %s = $1
	`, bc.Table, bc.DownloadedChapters, cc.Table, cc.BookID, cc.DownloadStatus, ChapterCompleted, bc.UpdatedAt, bc.ID)
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "recompute downloaded chapters")
	}
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.CatalogBook.Table, schema.CatalogBook.ID)
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete book")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}
	return nil
}

// # Chapter Repository

type chapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterStore constructs a PostgreSQL backed [ChapterStore].
func NewChapterStore(pool *pgxpool.Pool) ChapterStore {
	return &chapterRepository{pool: pool}
}

func chapterColumnsSQL() string {
	c := schema.CatalogChapter
	return strings.Join([]string{c.ID, c.BookID, c.ItemID, c.ChapterIndex, c.Title, c.VolumeName,
		c.WordCount, c.DownloadStatus, c.ContentRef, c.CreatedAt, c.UpdatedAt}, ", ")
}

func scanChapter(row pgx.Row) (*Chapter, error) {
	var ch Chapter
	err := row.Scan(&ch.ID, &ch.BookID, &ch.ItemID, &ch.ChapterIndex, &ch.Title, &ch.VolumeName,
		&ch.WordCount, &ch.DownloadStatus, &ch.ContentRef, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *chapterRepository) Create(ctx context.Context, ch *Chapter) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`INSERT INTO %s (%s,%s,%s,%s,%s,%s,%s,%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.Table, c.ID, c.BookID, c.ItemID, c.ChapterIndex, c.Title, c.VolumeName, c.WordCount, c.DownloadStatus)
	_, err := r.pool.Exec(ctx, query, ch.ID, ch.BookID, ch.ItemID, ch.ChapterIndex, ch.Title,
		ch.VolumeName, ch.WordCount, ch.DownloadStatus)
	if err != nil {
		return dberr.Wrap(err, "create chapter")
	}
	return nil
}

func (r *chapterRepository) CreateMany(ctx context.Context, chapters []*Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin create-many chapters")
	}
	defer tx.Rollback(ctx)

	c := schema.CatalogChapter
	query := fmt.Sprintf(`INSERT INTO %s (%s,%s,%s,%s,%s,%s,%s,%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.Table, c.ID, c.BookID, c.ItemID, c.ChapterIndex, c.Title, c.VolumeName, c.WordCount, c.DownloadStatus)
	for _, ch := range chapters {
		if _, err := tx.Exec(ctx, query, ch.ID, ch.BookID, ch.ItemID, ch.ChapterIndex, ch.Title,
			ch.VolumeName, ch.WordCount, ch.DownloadStatus); err != nil {
			return dberr.Wrap(err, "insert chapter")
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit create-many chapters")
	}
	return nil
}

func (r *chapterRepository) Get(ctx context.Context, id string) (*Chapter, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", chapterColumnsSQL(), schema.CatalogChapter.Table, schema.CatalogChapter.ID)
	ch, err := scanChapter(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get chapter")
	}
	return ch, nil
}

func (r *chapterRepository) GetByIndex(ctx context.Context, bookID string, index int) (*Chapter, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND %s = $2", chapterColumnsSQL(), c.Table, c.BookID, c.ChapterIndex)
	ch, err := scanChapter(r.pool.QueryRow(ctx, query, bookID, index))
	if err != nil {
		return nil, dberr.Wrap(err, "get chapter by index")
	}
	return ch, nil
}

func (r *chapterRepository) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Chapter, int, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() FROM %s WHERE %s = $1 ORDER BY %s ASC LIMIT $2 OFFSET $3`,
		chapterColumnsSQL(), c.Table, c.BookID, c.ChapterIndex)
	rows, err := r.pool.Query(ctx, query, bookID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list chapters by book")
	}
	defer rows.Close()

	var chapters []*Chapter
	total := 0
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.ItemID, &ch.ChapterIndex, &ch.Title, &ch.VolumeName,
			&ch.WordCount, &ch.DownloadStatus, &ch.ContentRef, &ch.CreatedAt, &ch.UpdatedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "scan chapter")
		}
		chapters = append(chapters, &ch)
	}
	return chapters, total, nil
}

// ListForProcessing returns the ordered chapters of a book within r whose
// status is one of statuses. An empty statuses slice means "all statuses".
func (r *chapterRepository) ListForProcessing(ctx context.Context, bookID string, rng ChapterRange, statuses []ChapterDownloadStatus) ([]*Chapter, error) {
	c := schema.CatalogChapter
	var b strings.Builder
	args := []any{bookID}
	argN := 2

	b.WriteString(fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", chapterColumnsSQL(), c.Table, c.BookID))

	if rng.StartChapter != nil {
		b.WriteString(fmt.Sprintf(" AND %s >= $%d", c.ChapterIndex, argN))
		args = append(args, *rng.StartChapter)
		argN++
	}
	if rng.EndChapter != nil {
		b.WriteString(fmt.Sprintf(" AND %s <= $%d", c.ChapterIndex, argN))
		args = append(args, *rng.EndChapter)
		argN++
	}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", argN)
			args = append(args, s)
			argN++
		}
		b.WriteString(fmt.Sprintf(" AND %s IN (%s)", c.DownloadStatus, strings.Join(placeholders, ",")))
	}
	b.WriteString(fmt.Sprintf(" ORDER BY %s ASC", c.ChapterIndex))

	rows, err := r.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list chapters for processing")
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.ItemID, &ch.ChapterIndex, &ch.Title, &ch.VolumeName,
			&ch.WordCount, &ch.DownloadStatus, &ch.ContentRef, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan chapter")
		}
		chapters = append(chapters, &ch)
	}
	return chapters, nil
}

func (r *chapterRepository) MaxIndex(ctx context.Context, bookID string) (int, bool, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s WHERE %s = $1", c.ChapterIndex, c.Table, c.BookID)
	var max *int
	if err := r.pool.QueryRow(ctx, query, bookID).Scan(&max); err != nil {
		return 0, false, dberr.Wrap(err, "max chapter index")
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (r *chapterRepository) CountByStatus(ctx context.Context, bookID string, status ChapterDownloadStatus) (int, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2", c.Table, c.BookID, c.DownloadStatus)
	var count int
	if err := r.pool.QueryRow(ctx, query, bookID, status).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count chapters by status")
	}
	return count, nil
}

func (r *chapterRepository) SetDownloading(ctx context.Context, id string) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=now() WHERE %s=$2", c.Table, c.DownloadStatus, c.UpdatedAt, c.ID)
	_, err := r.pool.Exec(ctx, query, ChapterDownloading, id)
	if err != nil {
		return dberr.Wrap(err, "set chapter downloading")
	}
	return nil
}

// SetCompleted implements the §4.1 atomic chapter-status transition: update
// the chapter row and recompute the book's downloaded_chapters in one
// committed transaction.
func (r *chapterRepository) SetCompleted(ctx context.Context, id, bookID, contentRef string, wordCount int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin set-completed")
	}
	defer tx.Rollback(ctx)

	cc := schema.CatalogChapter
	updateChapter := fmt.Sprintf(
		"UPDATE %s SET %s=$1, %s=$2, %s=$3, %s=now() WHERE %s=$4",
		cc.Table, cc.DownloadStatus, cc.ContentRef, cc.WordCount, cc.UpdatedAt, cc.ID,
	)
	if _, err := tx.Exec(ctx, updateChapter, ChapterCompleted, contentRef, wordCount, id); err != nil {
		return dberr.Wrap(err, "update chapter completed")
	}

	bc := schema.CatalogBook
	recompute := fmt.Sprintf(`
		UPDATE %s SET %s = (
			SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = '%s'
		), %s = now()
		WHERE %s = $1
	`, bc.Table, bc.DownloadedChapters, cc.Table, cc.BookID, cc.DownloadStatus, ChapterCompleted, bc.UpdatedAt, bc.ID)
	if _, err := tx.Exec(ctx, recompute, bookID); err != nil {
		return dberr.Wrap(err, "recompute downloaded chapters")
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit set-completed")
	}
	return nil
}

func (r *chapterRepository) SetFailed(ctx context.Context, id string) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=now() WHERE %s=$2", c.Table, c.DownloadStatus, c.UpdatedAt, c.ID)
	_, err := r.pool.Exec(ctx, query, ChapterFailed, id)
	if err != nil {
		return dberr.Wrap(err, "set chapter failed")
	}
	return nil
}

func (r *chapterRepository) ResetToPending(ctx context.Context, bookID string, rng ChapterRange) error {
	c := schema.CatalogChapter
	var b strings.Builder
	args := []any{bookID}
	argN := 2

	b.WriteString(fmt.Sprintf("UPDATE %s SET %s=$%d, %s=NULL, %s=now() WHERE %s=$1 AND %s = '%s'",
		c.Table, c.DownloadStatus, argN, c.ContentRef, c.UpdatedAt, c.BookID, c.DownloadStatus, ChapterCompleted))
	args = append(args, ChapterPending)
	argN++

	if rng.StartChapter != nil {
		b.WriteString(fmt.Sprintf(" AND %s >= $%d", c.ChapterIndex, argN))
		args = append(args, *rng.StartChapter)
		argN++
	}
	if rng.EndChapter != nil {
		b.WriteString(fmt.Sprintf(" AND %s <= $%d", c.ChapterIndex, argN))
		args = append(args, *rng.EndChapter)
	}

	_, err := r.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return dberr.Wrap(err, "reset chapters to pending")
	}
	return nil
}

func (r *chapterRepository) ResetFailedToPending(ctx context.Context, bookID string) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=now() WHERE %s=$2 AND %s=$3",
		c.Table, c.DownloadStatus, c.UpdatedAt, c.BookID, c.DownloadStatus)
	_, err := r.pool.Exec(ctx, query, ChapterPending, bookID, ChapterFailed)
	if err != nil {
		return dberr.Wrap(err, "reset failed chapters")
	}
	return nil
}

// # Task Repository

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskStore constructs a PostgreSQL backed [TaskStore].
func NewTaskStore(pool *pgxpool.Pool) TaskStore {
	return &taskRepository{pool: pool}
}

func taskColumnsSQL() string {
	c := schema.CatalogTask
	return strings.Join([]string{c.ID, c.BookID, c.Type, c.Status, c.Total, c.Downloaded, c.Failed,
		c.ErrorMessage, c.CreatedAt, c.StartedAt, c.CompletedAt}, ", ")
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.BookID, &t.Type, &t.Status, &t.Total, &t.Downloaded, &t.Failed,
		&t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) Create(ctx context.Context, t *Task) error {
	c := schema.CatalogTask
	query := fmt.Sprintf(`INSERT INTO %s (%s,%s,%s,%s,%s,%s,%s) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.Table, c.ID, c.BookID, c.Type, c.Status, c.Total, c.Downloaded, c.Failed)
	_, err := r.pool.Exec(ctx, query, t.ID, t.BookID, t.Type, t.Status, t.Total, t.Downloaded, t.Failed)
	if err != nil {
		return dberr.Wrap(err, "create task")
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id string) (*Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", taskColumnsSQL(), schema.CatalogTask.Table, schema.CatalogTask.ID)
	t, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "get task")
	}
	return t, nil
}

func (r *taskRepository) ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Task, int, error) {
	c := schema.CatalogTask
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2 OFFSET $3`,
		taskColumnsSQL(), c.Table, c.BookID, c.CreatedAt)
	return r.queryTasks(ctx, query, bookID, limit, offset)
}

func (r *taskRepository) List(ctx context.Context, limit, offset int) ([]*Task, int, error) {
	c := schema.CatalogTask
	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() FROM %s ORDER BY %s DESC LIMIT $1 OFFSET $2`,
		taskColumnsSQL(), c.Table, c.CreatedAt)
	return r.queryTasks(ctx, query, limit, offset)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*Task, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list tasks")
	}
	defer rows.Close()

	var tasks []*Task
	total := 0
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.BookID, &t.Type, &t.Status, &t.Total, &t.Downloaded, &t.Failed,
			&t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.CompletedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "scan task")
		}
		tasks = append(tasks, &t)
	}
	return tasks, total, nil
}

func (r *taskRepository) LatestActiveByBook(ctx context.Context, bookID string) (*Task, error) {
	c := schema.CatalogTask
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s IN ('%s','%s') ORDER BY %s DESC LIMIT 1`,
		taskColumnsSQL(), c.Table, c.BookID, c.Status, TaskPending, TaskRunning, c.CreatedAt)
	t, err := scanTask(r.pool.QueryRow(ctx, query, bookID))
	if err != nil {
		return nil, dberr.Wrap(err, "latest active task")
	}
	return t, nil
}

func (r *taskRepository) SetTotal(ctx context.Context, id string, total int) error {
	c := schema.CatalogTask
	query := fmt.Sprintf("UPDATE %s SET %s=$1 WHERE %s=$2", c.Table, c.Total, c.ID)
	_, err := r.pool.Exec(ctx, query, total, id)
	if err != nil {
		return dberr.Wrap(err, "set task total")
	}
	return nil
}

func (r *taskRepository) MarkRunning(ctx context.Context, id string) error {
	c := schema.CatalogTask
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=now() WHERE %s=$2 AND %s NOT IN ('completed', 'failed', 'cancelled')",
		c.Table, c.Status, c.StartedAt, c.ID, c.Status)
	_, err := r.pool.Exec(ctx, query, TaskRunning, id)
	if err != nil {
		return dberr.Wrap(err, "mark task running")
	}
	return nil
}

func (r *taskRepository) UpdateCounters(ctx context.Context, id string, downloaded, failed int) error {
	c := schema.CatalogTask
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=$2 WHERE %s=$3", c.Table, c.Downloaded, c.Failed, c.ID)
	_, err := r.pool.Exec(ctx, query, downloaded, failed, id)
	if err != nil {
		return dberr.Wrap(err, "update task counters")
	}
	return nil
}

func (r *taskRepository) MarkTerminal(ctx context.Context, id string, status TaskStatus, errorMessage *string) error {
	c := schema.CatalogTask
	query := fmt.Sprintf("UPDATE %s SET %s=$1, %s=$2, %s=now() WHERE %s=$3 AND %s NOT IN ('completed', 'failed', 'cancelled')",
		c.Table, c.Status, c.ErrorMessage, c.CompletedAt, c.ID, c.Status)
	_, err := r.pool.Exec(ctx, query, status, errorMessage, id)
	if err != nil {
		return dberr.Wrap(err, "mark task terminal")
	}
	return nil
}
