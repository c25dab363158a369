package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/dbx"
	"github.com/vtlstk/spacecloud/internal/logging"
	"github.com/vtlstk/spacecloud/internal/server/models"
	"github.com/vtlstk/spacecloud/internal/server/repositories/repomanager"
	"github.com/vtlstk/spacecloud/internal/server/storage"
)

// PaginationInfo tells the client whether a freshly created todo landed on a
// page beyond the one it is currently showing.
type PaginationInfo struct {
	IsLoadLastPage bool `json:"isLoadLastPage"`
	PageNumber     int  `json:"pageNumber"`
}

// TodoPage is one page of a user's todos, partitioned by completion state.
// The partition applies to the already-paginated window, not globally.
type TodoPage struct {
	TotalPages   int
	CurrentPage  int
	PageSize     int
	TotalCount   int64
	Completed    []*models.Todo
	NotCompleted []*models.Todo
}

// TodoService implements the ownership-scoped todo store. Every operation
// acts only on rows whose user_id matches the verified identity passed in by
// the caller; client-supplied ids are never trusted for ownership.
type TodoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       storage.BlobStore
	logger      logging.Logger
}

// NewTodoService constructs a TodoService.
func NewTodoService(db *sql.DB, m repomanager.RepositoryManager, blobs storage.BlobStore, logger logging.Logger) *TodoService {
	return &TodoService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      logger.With("module", "todo_service"),
	}
}

// Add creates a todo for userID and computes pagination metadata from the
// client's current view: PageNumber is the last page after the insert, and
// IsLoadLastPage reports whether that page lies beyond the client's current
// one. Title and description are required.
func (s *TodoService) Add(ctx context.Context, userID string, todo *models.Todo, pageSize, currentPage int) (*models.Todo, *PaginationInfo, error) {
	if todo.Title == "" || todo.Description == "" {
		return nil, nil, common.ErrorValidation
	}
	todo.UserID = userID

	repo := s.repomanager.Todos(s.db)
	created, err := repo.Create(ctx, todo)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating todo: %w", err)
	}
	created.Files = []models.File{}

	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error counting todos: %w", err)
	}

	if pageSize < 1 {
		pageSize = common.DefaultPageSize
	}
	totalPages := totalPages(total, pageSize)

	info := &PaginationInfo{
		IsLoadLastPage: totalPages > currentPage,
		PageNumber:     totalPages,
	}
	return created, info, nil
}

// Edit applies the patch to the todo owned by userID and returns the updated
// record with its attachments. An absent todo and a todo owned by someone
// else both yield common.ErrorNotFound.
func (s *TodoService) Edit(ctx context.Context, userID, todoID string, patch *models.TodoPatch) (*models.Todo, error) {
	repo := s.repomanager.Todos(s.db)
	updated, err := repo.Update(ctx, userID, todoID, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating todo: %w", err)
	}

	files, err := s.repomanager.Files(s.db).SelectByTodo(ctx, updated.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading attachments: %w", err)
	}
	updated.Files = files

	return updated, nil
}

// List returns one page of the user's todos, newest first with id as a
// tie-break, grouped into completed and not-completed within the page.
// Page and pageSize are clamped to at least 1; pageSize defaults to 10.
func (s *TodoService) List(ctx context.Context, userID string, page, pageSize int) (*TodoPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = common.DefaultPageSize
	}

	repo := s.repomanager.Todos(s.db)
	fileRepo := s.repomanager.Files(s.db)

	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting todos: %w", err)
	}

	todos, err := repo.SelectPage(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("error selecting todos: %w", err)
	}

	result := &TodoPage{
		TotalPages:   totalPages(total, pageSize),
		CurrentPage:  page,
		PageSize:     pageSize,
		TotalCount:   total,
		Completed:    []*models.Todo{},
		NotCompleted: []*models.Todo{},
	}

	for _, todo := range todos {
		files, err := fileRepo.SelectByTodo(ctx, todo.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading attachments: %w", err)
		}
		todo.Files = files

		if todo.Completed {
			result.Completed = append(result.Completed, todo)
		} else {
			result.NotCompleted = append(result.NotCompleted, todo)
		}
	}

	return result, nil
}

// DeleteAll removes every todo owned by userID together with all attachment
// rows, in one transaction. Blob deletion happens after commit and is best
// effort: a failed delete leaves an orphaned object for the sweep to
// reclaim. Zero owned todos yield common.ErrorNotFound.
func (s *TodoService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	keys, err := s.repomanager.Files(s.db).SelectKeysByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error selecting storage keys: %w", err)
	}

	var deleted int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Files(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		var delErr error
		deleted, delErr = s.repomanager.Todos(tx).DeleteByUser(ctx, userID)
		return delErr
	})
	if err != nil {
		return 0, fmt.Errorf("error deleting todos: %w", err)
	}

	if deleted == 0 {
		return 0, common.ErrorNotFound
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "failed to delete attachment blob, leaving orphan for sweep", "key", key, "error", err.Error())
		}
	}

	return deleted, nil
}

// totalPages computes ceil(total/pageSize).
func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
