package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis never connects; denylist checks degrade to "not listed".
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
}

func authRouter(auth *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", auth.Required(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(CtxUserID),
			"email":    c.GetString(CtxEmail),
			"is_admin": c.GetBool(CtxIsAdmin),
		})
	})
	r.GET("/admin", auth.Required(), RequireAdmin, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/open", auth.Optional(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":      c.GetString(CtxUserID),
			"cart_session": c.GetString(CtxCartSession),
		})
	})
	return r
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	token, err := auth.IssueToken("user_abc123def456", "jo@example.com", "Jo", false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user_abc123def456")
	assert.Contains(t, w.Body.String(), "jo@example.com")
}

func TestRequiredRejectsMissingAndBadTokens(t *testing.T) {
	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	for _, header := range []string{"", "Bearer not-a-token", "Basic abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestRequiredRejectsForeignSignature(t *testing.T) {
	other := NewAuth("other_secret", unreachableRedis())
	token, err := other.IssueToken("user_abc123def456", "jo@example.com", "Jo", false)
	require.NoError(t, err)

	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	customer, _ := auth.IssueToken("user_aaa111bbb222", "c@example.com", "C", false)
	admin, _ := auth.IssueToken("user_ccc333ddd444", "a@example.com", "A", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalIssuesCartSession(t *testing.T) {
	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	// Anonymous: gets a cart_session cookie, no user id.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "cart_session" {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	assert.NotEmpty(t, sessionCookie.Value)

	// Same cookie comes back: same session, no new cookie issued.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(sessionCookie)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sessionCookie.Value)
	assert.Empty(t, w.Result().Cookies())
}

func TestOptionalPrefersAuthenticatedIdentity(t *testing.T) {
	auth := NewAuth("test_secret", unreachableRedis())
	r := authRouter(auth)

	token, _ := auth.IssueToken("user_abc123def456", "jo@example.com", "Jo", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user_abc123def456")
	assert.Empty(t, w.Result().Cookies())
}
