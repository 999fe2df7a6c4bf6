package handlers

import (
	"log"
	"net/http"

	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
)

// AuthHandler drives the Google OAuth round-trip and the JWT session it
// produces.
type AuthHandler struct {
	users repository.UserRepository
	auth  *middleware.Auth
}

func NewAuthHandler(users repository.UserRepository, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

// withProvider tells gothic which provider the route targets.
func withProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()
}

// Begin redirects the browser to the provider's consent screen.
func (h *AuthHandler) Begin(c *gin.Context) {
	if c.Param("provider") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No provider specified"})
		return
	}
	withProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// Callback completes the OAuth exchange, upserts the user by email and
// issues the session token.
func (h *AuthHandler) Callback(c *gin.Context) {
	withProvider(c)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}

	user, err := h.users.UpsertOAuth(c.Request.Context(), gothUser.Email, name, gothUser.AvatarURL)
	if err != nil {
		log.Println("❌ OAuth upsert failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	token, err := h.auth.IssueToken(user.UserID, user.Email, user.Name, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token issuance failed"})
		return
	}

	log.Println("✅ OAuth login:", user.Email)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout denylists the presented token until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		h.auth.Revoke(c.Request.Context(), authHeader[7:])
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MakeAdmin promotes a user by email. Admin only.
func (h *AuthHandler) MakeAdmin(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.PromoteByEmail(c.Request.Context(), input.Email); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No user with that email"})
		return
	}

	log.Println("👑 Promoted to admin:", input.Email)
	c.JSON(http.StatusOK, gin.H{"message": "User promoted to admin", "email": input.Email})
}
