package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName carries the session token for browser clients.
	CookieName = "jwt"

	loggedOutValue = "loggedout"
	loggedOutTTL   = 10 * time.Second
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	TTL time.Duration
	// Secure forces the Secure flag. Otherwise it follows the request
	// scheme, honouring X-Forwarded-Proto.
	Secure bool
}

// ExtractToken returns the bearer token from the Authorization header, or
// from the session cookie when the header is absent.
func ExtractToken(r *http.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != loggedOutValue {
		return c.Value
	}
	return ""
}

// AttachToken sets the session cookie. The cookie is HTTP-only.
func AttachToken(c *gin.Context, token string, opts CookieOptions) {
	setCookie(c, token, opts.TTL, opts.Secure)
}

// ClearToken overwrites the session cookie with a short-lived dummy value.
func ClearToken(c *gin.Context, opts CookieOptions) {
	setCookie(c, loggedOutValue, loggedOutTTL, opts.Secure)
}

func setCookie(c *gin.Context, value string, ttl time.Duration, secure bool) {
	secure = secure || c.Request.TLS != nil ||
		strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
