package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/saldoapp/saldo/internal/auth/domain"
)

type userResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(user *authdomain.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		UserName:  user.UserName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

type registerRequest struct {
	UserName        string `json:"userName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || req.ConfirmPassword == "" {
		AbortWithError(c, newValidationError("request", "missing_fields", "missing required fields"))
		return
	}
	if req.Password != req.ConfirmPassword {
		AbortWithError(c, newValidationError("confirmPassword", "password_mismatch", "passwords do not match"))
		return
	}

	ctx := c.Request.Context()
	user, err := s.authsvc.Register(ctx, authdomain.RegisterRequest{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Log the fresh account straight in, as the web client expects.
	result, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(result.User)})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), actorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
