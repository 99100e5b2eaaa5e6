package middleware

import (
	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/gin-gonic/gin"
)

// RestrictTo protects the route and admits only roles in the set. The set
// is fixed when the route is registered.
func RestrictTo(engine *natours.Engine, roles account.RoleSet) gin.HandlerFunc {
	if engine == nil {
		return Protect(nil)
	}
	return Protect(engine, engine.RestrictTo(roles))
}
