package middleware

import (
	"github.com/MrEthical07/natours"
	"github.com/gin-gonic/gin"
)

// IsLoggedIn stores the current account when the request carries a valid,
// fresh session. It never aborts; handlers check AccountFromContext.
func IsLoggedIn(engine *natours.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if engine != nil {
			if a := engine.CurrentAccount(c.Request.Context(), ExtractToken(c.Request)); a != nil {
				c.Set(accountKey, a)
			}
		}
		c.Next()
	}
}
