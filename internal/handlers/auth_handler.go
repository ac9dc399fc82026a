package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "prism/internal/errors"
	"prism/internal/middleware"
	"prism/internal/models"
	"prism/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// AuthResponse represents the authentication response with a token pair
type AuthResponse struct {
	User   *models.User         `json:"user"`
	Tokens middleware.TokenPair `json:"tokens"`
}

// issueTokens generates a token pair and stores the refresh token's hash,
// invalidating any refresh token issued before it.
func (h *AuthHandler) issueTokens(user *models.User) (middleware.TokenPair, error) {
	pair, err := middleware.GenerateTokenPair(user)
	if err != nil {
		return middleware.TokenPair{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(pair.Refresh)); err != nil {
		return middleware.TokenPair{}, err
	}
	return pair, nil
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and tokens issued"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     409 {object} middleware.ErrorResponse "Email already registered"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.CreateUser(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, AuthResponse{User: user, Tokens: tokens})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and issue a token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and tokens issued"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Invalid credentials"
// @Failure     423 {object} middleware.ErrorResponse "Account locked"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new token pair
// @Summary     Refresh tokens
// @Description Rotate the refresh token and issue a new access token. Only the most recently issued refresh token is accepted.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New token pair"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Invalid or revoked refresh token"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	claims, err := middleware.ValidateRefreshToken(req.Refresh)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	tokens, err := middleware.GenerateTokenPair(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	// Only the request whose presented hash is still stored wins the swap.
	if err := h.userService.RotateRefreshTokenHash(user.ID, middleware.HashToken(req.Refresh), middleware.HashToken(tokens.Refresh)); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}
