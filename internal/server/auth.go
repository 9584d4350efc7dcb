package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"consistify/internal/auth"
	"consistify/internal/models"
)

const minPasswordLen = 6

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates an account.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case strings.TrimSpace(req.Name) == "" || username == "" || email == "" || req.Password == "":
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("all fields are required"))
		return
	case !validEmail(email):
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid email format"))
		return
	case len(req.Password) < minPasswordLen:
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("password must be at least %d characters long", minPasswordLen))
		return
	}

	if existing, err := s.store.FindUserByLogin(c.Request.Context(), email, username); err == nil {
		msg := "username already exists"
		if existing.Email == email {
			msg = "email already exists"
		}
		s.respondError(c, http.StatusConflict, errors.New(msg))
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		s.fail(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.store.CreateUser(c.Request.Context(), models.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"user": user})
}

// handleLogin checks credentials and sets the access cookie.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("email and password are required"))
		return
	}

	user, err := s.store.FindUserByLogin(c.Request.Context(), email, "")
	if errors.Is(err, models.ErrNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		s.respondError(c, http.StatusUnauthorized, fmt.Errorf("invalid credentials"))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setAccessCookie(c, token, int(s.issuer.TTL().Seconds()))
	respondSuccess(c, http.StatusOK, gin.H{"user": user, "token": token})
}

// handleLogout clears the access cookie.
func (s *Server) handleLogout(c *gin.Context) {
	s.setAccessCookie(c, "", -1)
	respondSuccess(c, http.StatusOK, gin.H{"status": "logged out"})
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(c *gin.Context) {
	user, err := s.store.GetUser(c.Request.Context(), currentUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": user})
}

func (s *Server) setAccessCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.opts.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, value, maxAge, "/", "", s.opts.SecureCookies, true)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
