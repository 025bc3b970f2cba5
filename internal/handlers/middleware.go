package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/RiteshRC96/WonderDoorAdmin-sub000/internal/auth"
)

// principalHeader names the admin user acting on the request. Upstream
// (API Gateway authorizer or the admin shell) sets it; workflows read the
// principal from context instead of a hard-coded user id.
const principalHeader = "X-Admin-User"

// Principal injects the request identity into the request context.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := c.GetHeader(principalHeader); user != "" {
			ctx := auth.WithPrincipal(c.Request.Context(), auth.Principal{UserID: user})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
