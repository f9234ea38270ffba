package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tunevault/core/auth"
	"tunevault/logger"
	"tunevault/model"
	"tunevault/repository"
)

// contextKey is the private type for request-context values set by the
// auth middleware.
type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// TokenResponse is returned by both register and login.
type TokenResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	User      model.User `json:"user"`
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body.")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Username/email and password are required.")
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Username)))
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		logger.Error("login user lookup failed", logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error.")
		return
	}

	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("login rejected", logger.String("username", req.Username))
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username/email or password.")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("token generation failed", logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal server error.")
		return
	}

	logger.Info("user logged in", logger.String("username", user.Username))
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, TokenType: "bearer", User: *user})
}

// RegisterHandler handles user registration requests.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body.")
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Username, password and email are required.")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to process password.")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("registration conflict",
				logger.String("username", req.Username),
				logger.String("email", user.Email))
			writeJSONError(w, http.StatusConflict, "duplicate_user", "Username or email already exists.")
			return
		}
		logger.Error("user creation failed", logger.ErrorField(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to create user.")
		return
	}
	user.ID = userID

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to generate token.")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, TokenType: "bearer", User: *user})
}

// AuthMiddleware requires a valid bearer token and stores its claims in the
// request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := bearerClaims(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// bearerClaims extracts and validates the Authorization bearer token.
func bearerClaims(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header format")
	}

	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
