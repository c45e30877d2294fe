// ABOUTME: Admin-only handlers for team roster and channel instances
// ABOUTME: Routed behind the RequireRole(admin) middleware

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapdesk/zapdesk/internal/auth"
	"github.com/zapdesk/zapdesk/internal/directory"
)

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	users, err := s.team.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserViews(users))
}

type userRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.team.Create(r.Context(), directory.CreateParams{
		Name:   req.Name,
		Role:   req.Role,
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
	writeJSON(w, http.StatusCreated, toUserView(user))
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	user, err := s.team.Update(r.Context(), chi.URLParam(r, "id"), directory.CreateParams{
		Name:   req.Name,
		Role:   req.Role,
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
	writeJSON(w, http.StatusOK, toUserView(user))
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.team.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInstancesList(w http.ResponseWriter, r *http.Request) {
	instances, err := s.instances.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceViews(instances))
}

func (s *Server) handleInstanceCreate(w http.ResponseWriter, r *http.Request) {
	admin := auth.FromContext(r.Context())
	inst, err := s.instances.Create(r.Context(), admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstanceView(inst))
}

func (s *Server) handleInstanceConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.instances.Connect(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (s *Server) handleInstanceDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.instances.Disconnect(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "inactive"})
}

// handleInstanceQR serves the pairing QR code as a PNG image
func (s *Server) handleInstanceQR(w http.ResponseWriter, r *http.Request) {
	png, err := s.instances.PairingQR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.logger.Error("failed to write qr image", "error", err)
	}
}

func (s *Server) handleInstanceDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.instances.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
