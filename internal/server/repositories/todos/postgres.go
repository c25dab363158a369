// Package todos provides a PostgreSQL-backed repository for todo records.
package todos

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

// Create inserts a new todo for its UserID and returns the stored record.
func (r *PostgresRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `
		INSERT INTO todos (user_id, title, description, completed, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		todo.UserID, todo.Title, todo.Description, todo.Completed, todo.Comment).
		Scan(&todo.ID, &todo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

// Update applies non-nil patch fields atomically and returns the post-update
// record. Zero matched rows (absent todo or foreign owner) yield
// common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, userID, todoID string, patch *models.TodoPatch) (*models.Todo, error) {
	query := `
		UPDATE todos SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			completed = COALESCE($5, completed),
			comment = COALESCE($6, comment)
		WHERE id = $2 AND user_id = $1
		RETURNING id, user_id, title, description, completed, comment, created_at
	`

	todo := &models.Todo{}
	err := r.db.QueryRowContext(ctx, query,
		userID, todoID, patch.Title, patch.Description, patch.Completed, patch.Comment).
		Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Completed, &todo.Comment, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

// GetByID returns a todo regardless of owner, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, todoID string) (*models.Todo, error) {
	query := `
		SELECT id, user_id, title, description, completed, comment, created_at
		FROM todos
		WHERE id = $1
	`

	todo := &models.Todo{}
	err := r.db.QueryRowContext(ctx, query, todoID).
		Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Completed, &todo.Comment, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return todo, nil
}

// Exists reports whether a todo row with the given id is present.
func (r *PostgresRepository) Exists(ctx context.Context, todoID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM todos WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, todoID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

// CountByUser returns the number of todos owned by userID.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM todos WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

// SelectPage returns one page of the user's todos, newest first with id as
// the tie-break.
func (r *PostgresRepository) SelectPage(ctx context.Context, userID string, limit, offset int) ([]*models.Todo, error) {
	query := `
		SELECT id, user_id, title, description, completed, comment, created_at
		FROM todos
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to select todos: %w", err)
	}
	defer rows.Close()

	var result []*models.Todo
	for rows.Next() {
		var item models.Todo
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &item.Description,
			&item.Completed, &item.Comment, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteByUser removes every todo owned by userID and returns the number of
// rows deleted. Attachment rows must be removed first (same transaction).
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM todos WHERE user_id = $1`

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
