package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/server/models"
)

type addTodoRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Completed      bool   `json:"completed"`
	Comment        string `json:"comment"`
	PaginationInfo struct {
		PageSize    int `json:"pageSize"`
		CurrentPage int `json:"currentPage"`
	} `json:"paginationInfo"`
}

func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req addTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Title and description are required")
		return
	}

	todo := &models.Todo{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Comment:     req.Comment,
	}

	created, info, err := s.todos.Add(r.Context(), identity.UserID, todo, req.PaginationInfo.PageSize, req.PaginationInfo.CurrentPage)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			s.writeMessage(w, http.StatusBadRequest, "Title and description are required")
			return
		}
		s.logger.Error(r.Context(), "failed to create todo", "error", err.Error())
		s.writeMessage(w, errorStatus(err), "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"todo":           created,
		"paginationInfo": info,
	})
}

func (s *Server) handleEditTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	todoID := mux.Vars(r)["id"]

	var patch models.TodoPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.todos.Edit(r.Context(), identity.UserID, todoID, &patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeMessage(w, http.StatusNotFound, "Todo not found or you do not have permission to edit it.")
			return
		}
		s.logger.Error(r.Context(), "failed to update todo", "todo_id", todoID, "error", err.Error())
		s.writeMessage(w, errorStatus(err), "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTodoList(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", common.DefaultPageSize)

	result, err := s.todos.List(r.Context(), identity.UserID, page, pageSize)
	if err != nil {
		s.logger.Error(r.Context(), "failed to list todos", "error", err.Error())
		s.writeMessage(w, errorStatus(err), "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
		"pageSize":    result.PageSize,
		"totalCount":  result.TotalCount,
		"todos": map[string]any{
			"completed":    result.Completed,
			"notCompleted": result.NotCompleted,
		},
	})
}

func (s *Server) handleDeleteAllTodos(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	deleted, err := s.todos.DeleteAll(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.writeMessage(w, http.StatusNotFound, "No todos found for this user.")
			return
		}
		s.logger.Error(r.Context(), "failed to delete todos", "error", err.Error())
		s.writeMessage(w, errorStatus(err), "Internal server error")
		return
	}

	s.writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully deleted %d todos.", deleted))
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
