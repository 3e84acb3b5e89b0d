package ctxutil

import (
	"context"

	"savoria/api/response"
	"savoria/domain/shared"
	"savoria/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// ActorKey is the gin context key set by the actor middleware.
const ActorKey = "actor"

// WithRequestID returns the request context tagged with the request id so
// application and SQL logs carry it.
func WithRequestID(c *gin.Context) context.Context {
	return persistence.ContextWithRequestID(c.Request.Context(), response.GetRequestID(c))
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}

func SetActor(c *gin.Context, actor shared.Actor) {
	c.Set(ActorKey, actor)
}

// Actor returns the resolved caller, or an anonymous customer when the
// middleware did not run.
func Actor(c *gin.Context) shared.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor
		}
	}
	return shared.Actor{Kind: shared.ActorCustomer}
}
