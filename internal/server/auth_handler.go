package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/policy"
	"github.com/kutbudev/cardboard/internal/repository"
)

var (
	errBadCredentials = errors.New("No active account found with the given credentials", errors.Unauthorized())
	errBadToken       = errors.New("Token is invalid or expired", errors.Unauthorized())
)

// AuthHandler issues and checks bearer tokens.
type AuthHandler struct {
	Users  *repository.Users
	Tokens *auth.Tokens
}

func (h *AuthHandler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/auth")
	g.POST("/token", JSONFormatter(h.Token))
	g.POST("/token/refresh", JSONFormatter(h.Refresh))
	g.POST("/token/verify", JSONFormatter(h.Verify))
	g.GET("/me", Gate(policy.Authenticated), JSONFormatter(h.Me))
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Token exchanges credentials for a refresh and access token pair.
func (h *AuthHandler) Token(c *gin.Context) (int, interface{}, error) {
	var req tokenRequest
	if err := bindJSON(c, &req); err != nil {
		return 0, nil, err
	}

	user, err := h.Users.GetByEmail(c.Request.Context(), auth.NormalizeEmail(req.Email))
	if errors.Is(err, errors.ErrNotFound) {
		return 0, nil, errBadCredentials
	} else if err != nil {
		return 0, nil, err
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return 0, nil, errBadCredentials
	}

	pair, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, pair, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh issues a new access token for a valid refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) (int, interface{}, error) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return 0, nil, err
	}

	claims, err := h.Tokens.Parse(req.Refresh, auth.RefreshToken)
	if err != nil {
		return 0, nil, errBadToken
	}

	user, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if errors.Is(err, errors.ErrNotFound) || (err == nil && !user.IsActive) {
		return 0, nil, errBadToken
	} else if err != nil {
		return 0, nil, err
	}

	access, err := h.Tokens.Issue(user.ID, auth.AccessToken)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, gin.H{"access": access}, nil
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// Verify answers 200 for any valid token, access or refresh.
func (h *AuthHandler) Verify(c *gin.Context) (int, interface{}, error) {
	var req verifyRequest
	if err := bindJSON(c, &req); err != nil {
		return 0, nil, err
	}

	if _, err := h.Tokens.Parse(req.Token, auth.AccessToken); err == nil {
		return http.StatusOK, gin.H{}, nil
	}
	if _, err := h.Tokens.Parse(req.Token, auth.RefreshToken); err == nil {
		return http.StatusOK, gin.H{}, nil
	}
	return 0, nil, errBadToken
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) (int, interface{}, error) {
	return http.StatusOK, identity(c).User, nil
}
