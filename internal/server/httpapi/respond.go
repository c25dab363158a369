package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vtlstk/spacecloud/internal/common"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "failed to encode response", "error", err.Error())
	}
}

// writeMessage writes the uniform `{"message": ...}` envelope.
func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"message": msg})
}

// writeError writes `{"message": ..., "error": ...}`.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	s.writeJSON(w, status, map[string]string{"message": msg, "error": err.Error()})
}

// errorStatus maps service errors onto the HTTP taxonomy. Anything
// unrecognized is an internal failure.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrTokenSuperseded):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
