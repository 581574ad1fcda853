package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"hireme/internal/app/dto"
	"hireme/internal/app/services/auth"
	domainuser "hireme/internal/domain/user"
)

// AuthHandler exposes account registration and login.
type AuthHandler struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (h AuthHandler) Register(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		Headline string `json:"headline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.Service.Register(c.Request.Context(), auth.RegisterParams{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Headline: req.Headline,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthResponse{
		AccessToken: result.Token,
		User:        dto.NewUserProfile(*result.User),
	})
}

func (h AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.Service.Login(c.Request.Context(), auth.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken: result.Token,
		User:        dto.NewUserProfile(*result.User),
	})
}

// Me returns the profile behind the current token.
func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        p.ID,
		"full_name": p.FullName,
		"email":     p.Email,
		"role":      p.Role,
	})
}

func (h AuthHandler) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, domainuser.ErrEmailRequired),
		errors.Is(err, domainuser.ErrNameRequired),
		errors.Is(err, domainuser.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": trimServicePrefix(err.Error())})
	case errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	default:
		if h.Logger != nil {
			h.Logger.Error("auth request failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func trimServicePrefix(msg string) string {
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

var _ AuthHTTP = AuthHandler{}
