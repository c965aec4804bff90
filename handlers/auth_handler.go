package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler gates the chat behind the shared password. Successful logins
// get an opaque bearer token held in memory; tokens do not survive a restart.
type AuthHandler struct {
	passwordHash string

	mu       sync.RWMutex
	sessions map[string]struct{}
}

// NewAuthHandler creates an auth handler for the given bcrypt password hash.
func NewAuthHandler(passwordHash string) *AuthHandler {
	return &AuthHandler{
		passwordHash: passwordHash,
		sessions:     make(map[string]struct{}),
	}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PASSWORD",
				"message": "The password you entered is incorrect.",
			},
		})
		return
	}

	token := uuid.NewString()
	h.mu.Lock()
	h.sessions[token] = struct{}{}
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

// RequireSession is gin middleware that rejects requests without a valid
// bearer token from Login.
func (h *AuthHandler) RequireSession(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if ok {
		h.mu.RLock()
		_, ok = h.sessions[token]
		h.mu.RUnlock()
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid session token",
			},
		})
		return
	}
	c.Next()
}
