package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CredentialsRequest carries a username and password. It is used to register, to log in
// and to request a new API key.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// User represents an account for API responses (avoids import cycle with db package).
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyResponse is returned when a key is issued. The key itself is shown only once.
type APIKeyResponse struct {
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

// APIKeySummary describes a stored key without revealing it.
type APIKeySummary struct {
	ID        uuid.UUID `json:"id"`
	Prefix    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyListResponse lists the keys owned by the caller.
type APIKeyListResponse struct {
	Username string          `json:"username"`
	APIKeys  []APIKeySummary `json:"api_keys"`
}

// LoginResponse represents the login response with user data and authentication token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate validates the CredentialsRequest using the validator.
func (r *CredentialsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
