package todos

import (
	"context"

	"github.com/vtlstk/spacecloud/internal/server/models"
)

// Repository is the persistence contract for todos. Every read and write that
// acts on existing rows is scoped by the owner's user id; SelectPage ordering
// is created_at descending with id ascending as a deterministic tie-break so
// pagination stays stable across requests.
type Repository interface {
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	// Update applies the patch to the todo owned by userID. When the todo does
	// not exist or belongs to another user it returns common.ErrorNotFound;
	// the two cases are deliberately indistinguishable.
	Update(ctx context.Context, userID, todoID string, patch *models.TodoPatch) (*models.Todo, error)
	GetByID(ctx context.Context, todoID string) (*models.Todo, error)
	Exists(ctx context.Context, todoID string) (bool, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	SelectPage(ctx context.Context, userID string, limit, offset int) ([]*models.Todo, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
