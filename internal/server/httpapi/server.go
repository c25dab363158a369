// Package httpapi exposes the public HTTP interface: registration, login,
// token renewal, and the bearer-gated todo and attachment routes.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vtlstk/spacecloud/internal/logging"
	"github.com/vtlstk/spacecloud/internal/server/models"
	"github.com/vtlstk/spacecloud/internal/server/services"
)

// UserService is the slice of the user service the HTTP layer needs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, *services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, userID string) error
}

// TodoService is the slice of the todo service the HTTP layer needs.
type TodoService interface {
	Add(ctx context.Context, userID string, todo *models.Todo, pageSize, currentPage int) (*models.Todo, *services.PaginationInfo, error)
	Edit(ctx context.Context, userID, todoID string, patch *models.TodoPatch) (*models.Todo, error)
	List(ctx context.Context, userID string, page, pageSize int) (*services.TodoPage, error)
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// FileService is the slice of the file service the HTTP layer needs.
type FileService interface {
	Upload(ctx context.Context, todoID, name, contentType string, data []byte) (*models.File, error)
	Download(ctx context.Context, fileID string) (*models.File, io.ReadCloser, error)
	Relink(ctx context.Context, fileID, newSuffix string) (*models.File, error)
	Delete(ctx context.Context, fileID, todoID string) (*models.File, *models.Todo, error)
}

// Server serves the public HTTP API.
type Server struct {
	address      string
	logger       logging.Logger
	users        UserService
	todos        TodoService
	files        FileService
	accessSecret []byte
}

// NewServer constructs a Server bound to the given address.
func NewServer(address string, l logging.Logger, us UserService, ts TodoService, fs FileService, accessSecretKey string) *Server {
	return &Server{
		address:      address,
		logger:       l.With("module", "http_server"),
		users:        us,
		todos:        ts,
		files:        fs,
		accessSecret: []byte(accessSecretKey),
	}
}

// Run starts the HTTP server and drains it gracefully when ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
