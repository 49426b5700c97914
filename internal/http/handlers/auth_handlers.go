package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/otams/domain"
	"github.com/you/otams/internal/http/middleware"
	"github.com/you/otams/internal/logging"
)

// RefreshCookieName is the HttpOnly cookie carrying the refresh token
const RefreshCookieName = "refreshToken"

const refreshCookiePath = "/auth"

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc      domain.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandlers creates new auth handlers. cookieSecure sets the Secure
// attribute of the refresh cookie.
func NewAuthHandlers(authSvc domain.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuthHandlers{
		authSvc:      authSvc,
		cookieSecure: cookieSecure,
		logger:       logger.With("component", "auth_handlers"),
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Gender   string `json:"gender"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token in the body; the cookie is the fallback
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// UpdateProfileRequest lists the editable profile fields; absent fields are left untouched
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Gender *string `json:"gender"`
}

// tokenResponse renders a token pair
func tokenResponse(result *domain.AuthResult) gin.H {
	return gin.H{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    result.ExpiresIn(),
		"user":          userResponse(result.User),
	}
}

// userResponse renders the public profile of a user
func userResponse(user *domain.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"gender":     user.Gender,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
}

func message(msg string) gin.H {
	return gin.H{"data": gin.H{"message": msg}}
}

func (h *AuthHandlers) setRefreshCookie(c *gin.Context, result *domain.AuthResult) {
	maxAge := int(time.Until(result.RefreshTokenExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, result.RefreshToken, maxAge, refreshCookiePath, "", h.cookieSecure, true)
}

func (h *AuthHandlers) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, refreshCookiePath, "", h.cookieSecure, true)
}

// refreshTokenFrom reads the body's refresh_token first, then the cookie
func refreshTokenFrom(c *gin.Context) (string, error) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return "", nil
	}
	return cookie, nil
}

// internalError logs the wrapped cause and answers with a stable message
func (h *AuthHandlers) internalError(c *gin.Context, msg string, err error) {
	h.logger.ErrorContext(c.Request.Context(), msg, "route", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), domain.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Gender:   req.Gender,
	}, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
			return
		}
		h.internalError(c, "Failed to register user", err)
		return
	}

	h.setRefreshCookie(c, result)
	c.JSON(http.StatusOK, gin.H{"data": tokenResponse(result)})
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		case errors.Is(err, domain.ErrTooManyLoginAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed login attempts"})
		default:
			h.internalError(c, "Login failed", err)
		}
		return
	}

	h.setRefreshCookie(c, result)
	c.JSON(http.StatusOK, gin.H{"data": tokenResponse(result)})
}

// Refresh exchanges a refresh token for a new token pair
func (h *AuthHandlers) Refresh(c *gin.Context) {
	token, err := refreshTokenFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), token, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token required"})
		case errors.Is(err, domain.ErrInvalidOrExpiredToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		default:
			h.internalError(c, "Token refresh failed", err)
		}
		return
	}

	h.setRefreshCookie(c, result)
	c.JSON(http.StatusOK, gin.H{"data": tokenResponse(result)})
}

// Logout revokes one refresh token. It succeeds whether or not the token was still active.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token, err := refreshTokenFrom(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.authSvc.RevokeToken(c.Request.Context(), token, c.ClientIP()); err != nil {
		if errors.Is(err, domain.ErrMissingToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Refresh token required"})
			return
		}
		h.internalError(c, "Logout failed", err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, message("Logged out successfully"))
}

// ChangePassword changes the caller's password and ends all of their sessions
func (h *AuthHandlers) ChangePassword(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authSvc.ChangePassword(c.Request.Context(), claims.Subject, req.CurrentPassword, req.NewPassword, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIncorrectCurrentPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		case errors.Is(err, domain.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.internalError(c, "Failed to change password", err)
		}
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, message("Password changed successfully"))
}

// GetProfile returns the caller's profile
func (h *AuthHandlers) GetProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.authSvc.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.internalError(c, "Failed to get user profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userResponse(user)})
}

// UpdateProfile changes the caller's name and gender
func (h *AuthHandlers) UpdateProfile(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authSvc.UpdateProfile(c.Request.Context(), claims.Subject, domain.ProfileUpdate{
		Name:   req.Name,
		Gender: req.Gender,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.internalError(c, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userResponse(user)})
}

// RevokeAll revokes every refresh token of the caller
func (h *AuthHandlers) RevokeAll(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	count, err := h.authSvc.RevokeAllForUser(c.Request.Context(), claims.Subject, c.ClientIP())
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTokens) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active tokens found"})
			return
		}
		h.internalError(c, "Failed to revoke tokens", err)
		return
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "All refresh tokens revoked", "revoked": count}})
}
