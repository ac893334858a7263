package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/notesvault/notesvault/internal/auth"
	"go.uber.org/zap"
)

// AuthHandler exchanges admin credentials for a bearer token.
type AuthHandler struct {
	authenticator auth.Authenticator
	tokens        *auth.TokenManager
	logger        *zap.Logger
}

func NewAuthHandler(authenticator auth.Authenticator, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, tokens: tokens}
}

// RegisterRoutes registers the routes for this handler
func (h *AuthHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("auth")
	router.HandleFunc("/admin/login", h.handleLogin).Methods("POST")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, req *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(req.Body).Decode(&creds); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.authenticator.Authenticate(req.Context(), creds)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.logger.Warn("login rejected", zap.String("username", creds.Username))
		writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Issue(identity)
	if err != nil {
		h.logger.Error("token issue failed", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("admin logged in", zap.String("username", identity.Username))
	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{"token": token})
}
