package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vtlstk/spacecloud/internal/common"
	"github.com/vtlstk/spacecloud/internal/server/auth"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Registration failed", err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Error(r.Context(), "registration failed", "username", req.Username, "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, "Registration failed", err)
		return
	}

	s.logger.Info(r.Context(), "registered", "username", user.UserName)
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"user": map[string]string{
			"id":       user.ID,
			"username": user.UserName,
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.writeMessage(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		s.logger.Error(r.Context(), "login failed", "error", err.Error())
		s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Authentication successful",
		"userId":       user.ID,
		"username":     user.UserName,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		s.writeMessage(w, http.StatusUnauthorized, "Refresh Token is required")
		return
	}

	access, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
			s.writeMessage(w, http.StatusForbidden, "Invalid Refresh Token")
		case errors.Is(err, common.ErrTokenSuperseded):
			s.writeMessage(w, http.StatusForbidden, "Refresh Token does not match")
		default:
			s.logger.Error(r.Context(), "token renewal failed", "error", err.Error())
			s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// handleLogout always reports success so anonymous calls stay harmless, but
// when a valid bearer token is presented the user's stored refresh token is
// revoked.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if claims, err := auth.ParseToken(token, s.accessSecret); err == nil {
			if err := s.users.Logout(r.Context(), claims.UserID); err != nil {
				s.logger.Error(r.Context(), "logout revocation failed", "error", err.Error())
			}
		}
	}
	s.writeMessage(w, http.StatusOK, "Logged out")
}
