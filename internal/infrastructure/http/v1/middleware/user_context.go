package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "ledger/internal/core/context"
)

// HeaderUserID carries the caller-asserted user identity.
const HeaderUserID = "X-User-ID"

// ActorSourceAPI marks mutations made through the HTTP API.
const ActorSourceAPI = "api"

// UserContext puts the caller identity from X-User-ID on the request context,
// where created_by columns and audit records pick it up. The header is
// trusted; authentication is left to the gateway in front of the service.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
			UserID: userID,
			Source: ActorSourceAPI,
		})
		c.Request = c.Request.WithContext(ctx)
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
