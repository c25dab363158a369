package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/dbx"
	"github.com/vtlstk/spacecloud/internal/logging"
	"github.com/vtlstk/spacecloud/internal/server/models"
	"github.com/vtlstk/spacecloud/internal/server/repositories/repomanager"
	"github.com/vtlstk/spacecloud/internal/server/storage"
)

// sweepGracePeriod protects blobs younger than this from the orphan sweep,
// so an upload whose metadata row has not committed yet is never reclaimed.
const sweepGracePeriod = time.Hour

// DownloadLink derives the externally exposed handle for an attachment from
// its id and a file name. The same derivation is used at upload and relink
// time so every stored copy of the link stays identical.
func DownloadLink(fileID, name string) string {
	return fmt.Sprintf("files/%s/%s", fileID, name)
}

// FileService implements attachment storage: metadata rows in Postgres,
// binary content in the blob store.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       storage.BlobStore
	logger      logging.Logger
}

// NewFileService constructs a FileService.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs storage.BlobStore, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      logger.With("module", "file_service"),
	}
}

// Upload stores an attachment for an existing todo. The size ceiling is
// enforced before anything is persisted; an unknown todo yields
// common.ErrorNotFound. The blob is written first, then the metadata row
// with the derived download link; if the row insert fails the blob is
// released again.
func (s *FileService) Upload(ctx context.Context, todoID, name, contentType string, data []byte) (*models.File, error) {
	if int64(len(data)) > common.MaxUploadBytes {
		return nil, common.ErrFileTooLarge
	}
	if name == "" {
		return nil, common.ErrorValidation
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	exists, err := s.repomanager.Todos(s.db).Exists(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("error checking todo: %w", err)
	}
	if !exists {
		return nil, common.ErrorNotFound
	}

	key := storage.RandomKey()
	if err := s.blobs.Put(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("error storing attachment content: %w", err)
	}

	id := uuid.New().String()
	file := &models.File{
		ID:           id,
		TodoID:       todoID,
		Name:         name,
		ContentType:  contentType,
		Size:         int64(len(data)),
		StorageKey:   key,
		DownloadLink: DownloadLink(id, name),
	}

	if err := s.repomanager.Files(s.db).Create(ctx, file); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn(ctx, "failed to release blob after insert failure", "key", key, "error", delErr.Error())
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}

	return file, nil
}

// Download returns the attachment metadata and a stream of its content. The
// caller must close the stream.
func (s *FileService) Download(ctx context.Context, fileID string) (*models.File, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error loading file record: %w", err)
	}

	body, _, err := s.blobs.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching attachment content: %w", err)
	}

	return file, body, nil
}

// Relink regenerates the attachment's download link from its id and the new
// suffix. The normalized schema keeps a single copy of the link, so the
// todo-visible value updates with the row. An attachment whose owning todo
// has vanished is a consistency fault, reported as an internal error rather
// than a client error.
func (s *FileService) Relink(ctx context.Context, fileID, newSuffix string) (*models.File, error) {
	if newSuffix == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Files(s.db)
	file, err := repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading file record: %w", err)
	}

	link := DownloadLink(file.ID, newSuffix)
	if err := repo.UpdateDownloadLink(ctx, file.ID, link); err != nil {
		return nil, fmt.Errorf("error updating download link: %w", err)
	}

	exists, err := s.repomanager.Todos(s.db).Exists(ctx, file.TodoID)
	if err != nil {
		return nil, fmt.Errorf("error checking todo: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("file %s references missing todo %s: %w", file.ID, file.TodoID, common.ErrorInternal)
	}

	file.DownloadLink = link
	return file, nil
}

// Delete removes the attachment row and returns both the deleted record and
// the owning todo with its remaining attachments. The blob is released after
// the row delete commits; a failed release leaves an orphan for the sweep.
func (s *FileService) Delete(ctx context.Context, fileID, todoID string) (*models.File, *models.Todo, error) {
	var deleted *models.File
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var delErr error
		deleted, delErr = s.repomanager.Files(tx).Delete(ctx, fileID)
		return delErr
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("error deleting file: %w", err)
	}

	if err := s.blobs.Delete(ctx, deleted.StorageKey); err != nil {
		s.logger.Warn(ctx, "failed to delete attachment blob, leaving orphan for sweep", "key", deleted.StorageKey, "error", err.Error())
	}

	todo, err := s.repomanager.Todos(s.db).GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// the attachment is gone either way; report the delete without
			// the (absent) todo
			return deleted, nil, nil
		}
		return nil, nil, fmt.Errorf("error loading todo: %w", err)
	}

	files, err := s.repomanager.Files(s.db).SelectByTodo(ctx, todo.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading attachments: %w", err)
	}
	todo.Files = files

	return deleted, todo, nil
}

// SweepOrphans deletes blobs that no file row references. Objects younger
// than the grace period are skipped so concurrent uploads are never swept.
// Returns the number of blobs reclaimed.
func (s *FileService) SweepOrphans(ctx context.Context) (int, error) {
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing blobs: %w", err)
	}

	known, err := s.repomanager.Files(s.db).KnownStorageKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("error loading known storage keys: %w", err)
	}

	cutoff := time.Now().Add(-sweepGracePeriod)

	reclaimed := 0
	for _, blob := range blobs {
		if _, ok := known[blob.Key]; ok {
			continue
		}
		if blob.LastModified.After(cutoff) {
			continue
		}
		if err := s.blobs.Delete(ctx, blob.Key); err != nil {
			s.logger.Warn(ctx, "failed to delete orphaned blob", "key", blob.Key, "error", err.Error())
			continue
		}
		reclaimed++
	}

	if reclaimed > 0 {
		s.logger.Info(ctx, "reclaimed orphaned attachment blobs", "count", reclaimed)
	}

	return reclaimed, nil
}
