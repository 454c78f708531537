package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/passtalk/passtalk/internal/middleware"
	"github.com/passtalk/passtalk/pkg/logger"
)

// SessionHandler exchanges the configured access token for a session JWT.
type SessionHandler struct {
	accessToken string
	jwtSecret   string
	expiration  time.Duration
	logger      *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(accessToken, jwtSecret string, expiration time.Duration, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		accessToken: accessToken,
		jwtSecret:   jwtSecret,
		expiration:  expiration,
		logger:      log,
	}
}

// Create handles POST /api/v1/session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.accessToken == "" {
		writeError(w, http.StatusServiceUnavailable, "access token not configured")
		return
	}

	var req struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.AccessToken), []byte(h.accessToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid access token")
		return
	}

	token, err := middleware.IssueSessionToken(h.jwtSecret, h.expiration)
	if err != nil {
		h.logger.Error("failed to issue session token")
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_in": int(h.expiration.Seconds()),
	})
}
