package files

import (
	"context"

	"github.com/vtlstk/spacecloud/internal/server/models"
)

// Repository is the persistence contract for attachment metadata. Binary
// content lives in object storage; rows here carry the storage key that
// binds the two.
type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	SelectByTodo(ctx context.Context, todoID string) ([]models.File, error)
	UpdateDownloadLink(ctx context.Context, id string, link string) error
	// Delete removes the file row and returns the deleted record, so callers
	// can release the blob afterwards.
	Delete(ctx context.Context, id string) (*models.File, error)
	// SelectKeysByUser returns the storage keys of every attachment hanging
	// off the user's todos.
	SelectKeysByUser(ctx context.Context, userID string) ([]string, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// KnownStorageKeys returns the set of storage keys referenced by any file
	// row; blobs outside this set are orphans.
	KnownStorageKeys(ctx context.Context) (map[string]struct{}, error)
}
