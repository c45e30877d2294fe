// ABOUTME: Login, logout, and current-user handlers
// ABOUTME: Successful logins are answered with an HS256 bearer token

package api

import (
	"errors"
	"net/http"

	"github.com/zapdesk/zapdesk/internal/auth"
	"github.com/zapdesk/zapdesk/internal/directory"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	// The token is issued for the identity these credentials matched, not
	// whatever identity is current by the time we respond
	user := s.sessions.Login(r.Context(), req.Email, req.Password, req.Role)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := s.verifier.Generate(user.ID, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  toUserView(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, toUserView(user))
}

type profileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// handleMeUpdate lets any operator edit their own name, email, and
// password. The role stays fixed; only an admin may change it via the
// team routes.
func (s *Server) handleMeUpdate(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user := auth.FromContext(r.Context())
	updated, err := s.team.Update(r.Context(), user.ID, directory.CreateParams{
		Name:   req.Name,
		Role:   user.Role,
		Email:  req.Email,
		Secret: req.Password,
	})
	if err != nil {
		if errors.Is(err, directory.ErrInvalidParams) {
			writeBadRequest(w, err.Error())
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(updated))
}
