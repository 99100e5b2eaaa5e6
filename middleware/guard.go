package middleware

import (
	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/gin-gonic/gin"
)

const accountKey = "natours.account"

// AccountFromContext returns the account stored by Protect, RestrictTo or
// IsLoggedIn.
func AccountFromContext(c *gin.Context) (*account.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*account.Account)
	return a, ok && a != nil
}

// RequestContext attaches the client IP and User-Agent to the request
// context. Install it before any handler that calls the Engine.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := natours.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = natours.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Protect runs the full gate: token, account, staleness and then any extra
// checks. Failures abort with the JSON envelope.
func Protect(engine *natours.Engine, extra ...natours.Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine == nil {
			Abort(c, natours.ErrEngineNotReady, true)
			return
		}

		token := ExtractToken(c.Request)
		access, err := engine.Authorize(c.Request.Context(), token, engine.Protect(extra...))
		if err != nil {
			Abort(c, err, engine.ProductionMode())
			return
		}

		c.Set(accountKey, access.Account)
		c.Next()
	}
}
