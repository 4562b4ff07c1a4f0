package internal

import (
	"encoding/json"
	"net/http"
	"time"

	"rental-inventory-api/internal/respond"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// login verifies the configured credentials and issues a bearer token.
// Only mounted when auth is enabled.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	if req.Username != s.cfg.Auth.Username {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.JWT.GenerateToken(req.Username, []string{"admin"})
	if err != nil {
		s.Log.Error().Err(err).Msg("generate token")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.Auth.JWTExpiry)),
	})
}
