package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Context keys set by the auth middleware.
const (
	CtxUserID      = "user_id"
	CtxEmail       = "email"
	CtxName        = "name"
	CtxIsAdmin     = "is_admin"
	CtxCartSession = "cart_session"
)

const cartSessionCookie = "cart_session"

// Auth verifies bearer tokens and resolves the request identity. Logged-out
// tokens live on a Redis denylist until they expire.
type Auth struct {
	secret []byte
	rdb    *redis.Client
}

func NewAuth(secret string, rdb *redis.Client) *Auth {
	return &Auth{secret: []byte(secret), rdb: rdb}
}

// IssueToken signs a 7-day session token for a user.
func (a *Auth) IssueToken(userID, email, name string, isAdmin bool) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"email":    email,
		"name":     name,
		"is_admin": isAdmin,
		"exp":      time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Revoke denylists a token until its natural expiry.
func (a *Auth) Revoke(ctx context.Context, tokenString string) {
	ttl := 7 * 24 * time.Hour
	if claims, err := a.parse(tokenString); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			if remaining := time.Until(time.Unix(int64(exp), 0)); remaining > 0 {
				ttl = remaining
			}
		}
	}
	if err := a.rdb.Set(ctx, "logout:"+tokenString, "1", ttl).Err(); err != nil {
		log.Println("⚠️ Failed to denylist token:", err)
	}
}

func (a *Auth) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (a *Auth) identify(c *gin.Context) bool {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return false
	}

	if a.rdb.Exists(c.Request.Context(), "logout:"+tokenString).Val() > 0 {
		return false
	}

	claims, err := a.parse(tokenString)
	if err != nil {
		log.Printf("❌ JWT rejected: %v", err)
		return false
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return false
	}

	c.Set(CtxUserID, userID)
	c.Set(CtxEmail, claims["email"])
	c.Set(CtxName, claims["name"])
	isAdmin, _ := claims["is_admin"].(bool)
	c.Set(CtxIsAdmin, isAdmin)
	return true
}

// Required rejects requests without a valid token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.identify(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Optional resolves the identity when a valid token is present and lets the
// request through either way. Anonymous requests get a cart_session cookie
// so guest carts survive across visits.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.identify(c) {
			c.Next()
			return
		}

		sessionID, err := c.Cookie(cartSessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(cartSessionCookie, sessionID, 60*60*24*30, "/", "", false, true)
		}
		c.Set(CtxCartSession, sessionID)
		c.Next()
	}
}

// RequireAdmin gates admin endpoints; run it after Required.
func RequireAdmin(c *gin.Context) {
	if !c.GetBool(CtxIsAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return
	}
	c.Next()
}
