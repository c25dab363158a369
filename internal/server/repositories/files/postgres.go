// Package files provides a PostgreSQL-backed repository for attachment
// metadata rows.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/dbx"
	"github.com/vtlstk/spacecloud/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file row. The id and download link are assigned by the
// caller before persistence.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, todo_id, name, content_type, size, storage_key, download_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.TodoID, file.Name, file.ContentType, file.Size, file.StorageKey, file.DownloadLink).
		Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// GetByID returns the file row with the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `
		SELECT id, todo_id, name, content_type, size, storage_key, download_link, created_at
		FROM files
		WHERE id = $1
	`

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&file.ID, &file.TodoID, &file.Name, &file.ContentType, &file.Size,
			&file.StorageKey, &file.DownloadLink, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// SelectByTodo returns the attachment rows of a todo in upload order.
func (r *PostgresRepository) SelectByTodo(ctx context.Context, todoID string) ([]models.File, error) {
	query := `
		SELECT id, todo_id, name, content_type, size, storage_key, download_link, created_at
		FROM files
		WHERE todo_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []models.File{}
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.TodoID, &item.Name, &item.ContentType,
			&item.Size, &item.StorageKey, &item.DownloadLink, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateDownloadLink replaces the stored download link. Exactly one row must
// be affected; zero rows yield common.ErrorNotFound.
func (r *PostgresRepository) UpdateDownloadLink(ctx context.Context, id string, link string) error {
	query := `UPDATE files SET download_link = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, link)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// Delete removes a file row by id and returns the deleted record so the
// caller can release the blob. Absent rows yield common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.File, error) {
	query := `
		DELETE FROM files
		WHERE id = $1
		RETURNING id, todo_id, name, content_type, size, storage_key, download_link, created_at
	`

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&file.ID, &file.TodoID, &file.Name, &file.ContentType, &file.Size,
			&file.StorageKey, &file.DownloadLink, &file.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// SelectKeysByUser returns the storage keys of all attachments belonging to
// the user's todos.
func (r *PostgresRepository) SelectKeysByUser(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT f.storage_key
		FROM files f
		JOIN todos t ON f.todo_id = t.id
		WHERE t.user_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

// DeleteByUser removes every file row attached to the user's todos and
// returns the number of rows deleted.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM files f
		USING todos t
		WHERE f.todo_id = t.id AND t.user_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}

// KnownStorageKeys returns every storage key referenced by a file row.
func (r *PostgresRepository) KnownStorageKeys(ctx context.Context) (map[string]struct{}, error) {
	query := `SELECT storage_key FROM files`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select storage keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}
