package repomanager

import (
	"context"
	"database/sql"

	"github.com/vtlstk/spacecloud/internal/dbx"
	"github.com/vtlstk/spacecloud/internal/server/repositories/files"
	"github.com/vtlstk/spacecloud/internal/server/repositories/todos"
	"github.com/vtlstk/spacecloud/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (either *sql.DB or a
// running transaction) and runs schema migrations.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Todos(db dbx.DBTX) todos.Repository
	Files(db dbx.DBTX) files.Repository
}
