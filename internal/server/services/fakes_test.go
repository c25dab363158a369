package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/vtlstk/spacecloud/internal/dbx"
	"github.com/vtlstk/spacecloud/internal/logging"
	"github.com/vtlstk/spacecloud/internal/server/models"
	filesrepo "github.com/vtlstk/spacecloud/internal/server/repositories/files"
	"github.com/vtlstk/spacecloud/internal/server/repositories/repomanager"
	todosrepo "github.com/vtlstk/spacecloud/internal/server/repositories/todos"
	usersrepo "github.com/vtlstk/spacecloud/internal/server/repositories/users"
	"github.com/vtlstk/spacecloud/internal/server/storage"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byNameOut *models.User
	byNameErr error

	byIDOut *models.User
	byIDErr error

	setTokenErr  error
	lastSetToken string

	clearErr error
	cleared  []string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "u-1"
	return u, nil
}

func (f *fakeUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if f.byNameErr != nil {
		return nil, f.byNameErr
	}
	return f.byNameOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) SetRefreshToken(ctx context.Context, userID string, token string) error {
	if f.setTokenErr != nil {
		return f.setTokenErr
	}
	f.lastSetToken = token
	return nil
}

func (f *fakeUsersRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeTodosRepo struct {
	createErr error

	updateOut *models.Todo
	updateErr error

	getOut *models.Todo
	getErr error

	existsOut bool
	existsErr error

	countOut int64
	countErr error

	pageOut []*models.Todo
	pageErr error

	deleteOut int64
	deleteErr error
}

func (f *fakeTodosRepo) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	todo.ID = "t-1"
	return todo, nil
}

func (f *fakeTodosRepo) Update(ctx context.Context, userID, todoID string, patch *models.TodoPatch) (*models.Todo, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeTodosRepo) GetByID(ctx context.Context, todoID string) (*models.Todo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeTodosRepo) Exists(ctx context.Context, todoID string) (bool, error) {
	return f.existsOut, f.existsErr
}

func (f *fakeTodosRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	return f.countOut, f.countErr
}

func (f *fakeTodosRepo) SelectPage(ctx context.Context, userID string, limit, offset int) ([]*models.Todo, error) {
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.pageOut, nil
}

func (f *fakeTodosRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return f.deleteOut, f.deleteErr
}

type fakeFilesRepo struct {
	createErr   error
	lastCreated *models.File

	getOut *models.File
	getErr error

	byTodoOut []models.File
	byTodoErr error

	updateLinkErr error
	lastLink      string

	deleteOut *models.File
	deleteErr error

	keysOut []string
	keysErr error

	deleteByUserOut int64
	deleteByUserErr error

	knownOut map[string]struct{}
	knownErr error
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.lastCreated = file
	return nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeFilesRepo) SelectByTodo(ctx context.Context, todoID string) ([]models.File, error) {
	if f.byTodoErr != nil {
		return nil, f.byTodoErr
	}
	if f.byTodoOut == nil {
		return []models.File{}, nil
	}
	return f.byTodoOut, nil
}

func (f *fakeFilesRepo) UpdateDownloadLink(ctx context.Context, id string, link string) error {
	if f.updateLinkErr != nil {
		return f.updateLinkErr
	}
	f.lastLink = link
	return nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id string) (*models.File, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return f.deleteOut, nil
}

func (f *fakeFilesRepo) SelectKeysByUser(ctx context.Context, userID string) ([]string, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.keysOut, nil
}

func (f *fakeFilesRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return f.deleteByUserOut, f.deleteByUserErr
}

func (f *fakeFilesRepo) KnownStorageKeys(ctx context.Context) (map[string]struct{}, error) {
	if f.knownErr != nil {
		return nil, f.knownErr
	}
	return f.knownOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	t *fakeTodosRepo
	f *fakeFilesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Todos(db dbx.DBTX) todosrepo.Repository      { return m.t }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository      { return m.f }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

type fakeBlobStore struct {
	putErr  error
	putKeys []string

	getBody []byte
	getErr  error

	delErr      error
	deletedKeys []string

	listOut []storage.BlobInfo
	listErr error
}

func (b *fakeBlobStore) Put(ctx context.Context, key string, contentType string, data []byte) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.putKeys = append(b.putKeys, key)
	return nil
}

func (b *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if b.getErr != nil {
		return nil, 0, b.getErr
	}
	return io.NopCloser(bytes.NewReader(b.getBody)), int64(len(b.getBody)), nil
}

func (b *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if b.delErr != nil {
		return b.delErr
	}
	b.deletedKeys = append(b.deletedKeys, key)
	return nil
}

func (b *fakeBlobStore) List(ctx context.Context) ([]storage.BlobInfo, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.listOut, nil
}

var _ storage.BlobStore = (*fakeBlobStore)(nil)
