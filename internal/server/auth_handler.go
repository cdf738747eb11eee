package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/server/middleware"
	"github.com/jonathan/resumeai/internal/types"
)

// AuthHandler handles account, login and API key requests.
type AuthHandler struct {
	responder
	userService *UserService
	jwtService  *JWTService
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, log *logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{
		responder:   responder{log: log},
		userService: userService,
		jwtService:  jwtService,
		validator:   validator.New(),
	}
}

func (h *AuthHandler) credentials(w http.ResponseWriter, r *http.Request) (*types.CredentialsRequest, bool) {
	var req types.CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return &req, true
}

// Register creates an account and returns its first API key.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	user, key, err := h.userService.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("user registered", "user_id", user.ID.String())
	h.jsonResponse(w, http.StatusCreated, types.APIKeyResponse{
		Message: "User registered successfully",
		APIKey:  key,
	})
}

// Login exchanges a username and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, types.LoginResponse{User: user, Token: token})
}

// CreateAPIKey issues an additional key to a user who proves their password.
func (h *AuthHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	req, ok := h.credentials(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key, err := h.userService.IssueAPIKey(r.Context(), user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, types.APIKeyResponse{
		Message: "API key generated successfully",
		APIKey:  key,
	})
}

// ListAPIKeys lists the caller's keys. Requires authentication.
func (h *AuthHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		h.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := h.userService.ListAPIKeys(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// RevokeCurrentAPIKey deletes the key the request was authenticated with.
func (h *AuthHandler) RevokeCurrentAPIKey(w http.ResponseWriter, r *http.Request) {
	principal, err := middleware.GetPrincipal(r)
	if err != nil {
		h.errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if principal.KeyHash == "" {
		h.errorResponse(w, http.StatusBadRequest, "request was not authenticated with an API key")
		return
	}

	deleted, err := h.userService.RevokeAPIKey(r.Context(), principal.KeyHash)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !deleted {
		h.errorResponse(w, http.StatusNotFound, "API key not found")
		return
	}
	h.log.Info("API key revoked", "user_id", principal.UserID.String())
	w.WriteHeader(http.StatusNoContent)
}
