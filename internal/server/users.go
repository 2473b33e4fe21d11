package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/saldoapp/saldo/internal/auth/domain"
)

type createUserRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser lets an authenticated user add another account, without
// touching the caller's own session.
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.UserName) == "" {
		AbortWithError(c, newValidationError("userName", "required", "userName is required"))
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}
