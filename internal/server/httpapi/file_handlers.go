package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vtlstk/spacecloud/internal/common"
)

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	todoID := mux.Vars(r)["todoId"]

	// the reader limit sits above the service ceiling so oversized uploads
	// get the size error, not a truncated body
	r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(common.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeMessage(w, http.StatusRequestEntityTooLarge, "File exceeds the 16 MB limit.")
			return
		}
		s.writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error(r.Context(), "failed to read upload", "error", err.Error())
		s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	created, err := s.files.Upload(r.Context(), todoID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrFileTooLarge):
			s.writeMessage(w, http.StatusRequestEntityTooLarge, "File exceeds the 16 MB limit.")
		case errors.Is(err, common.ErrorNotFound):
			s.writeMessage(w, http.StatusNotFound, "ToDo not found.")
		case errors.Is(err, common.ErrorValidation):
			s.writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		default:
			s.logger.Error(r.Context(), "failed to store upload", "todo_id", todoID, "error", err.Error())
			s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "File uploaded successfully",
		"file":    created,
	})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	meta, body, err := s.files.Download(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			http.Error(w, "File not found.", http.StatusNotFound)
			return
		}
		s.logger.Error(r.Context(), "failed to fetch attachment", "file_id", fileID, "error", err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Name+`"`)
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Error(r.Context(), "failed to stream attachment", "file_id", fileID, "error", err.Error())
	}
}

func (s *Server) handleEditDownloadLink(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["fileId"]

	var req struct {
		NewDownloadLink string `json:"newDownloadLink"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewDownloadLink == "" {
		s.writeMessage(w, http.StatusBadRequest, "newDownloadLink is required")
		return
	}

	updated, err := s.files.Relink(r.Context(), fileID, req.NewDownloadLink)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			s.writeMessage(w, http.StatusBadRequest, "newDownloadLink is required")
		case errors.Is(err, common.ErrorNotFound):
			s.writeMessage(w, http.StatusNotFound, "File not found.")
		default:
			s.logger.Error(r.Context(), "failed to update download link", "file_id", fileID, "error", err.Error())
			s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Download link updated successfully",
		"file":    updated,
	})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileID := vars["fileId"]
	todoID := vars["todoId"]

	_, todo, err := s.files.Delete(r.Context(), fileID, todoID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeMessage(w, http.StatusNotFound, "File not found.")
			return
		}
		s.logger.Error(r.Context(), "failed to delete attachment", "file_id", fileID, "error", err.Error())
		s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "File deleted successfully.",
		"todo":    todo,
	})
}
