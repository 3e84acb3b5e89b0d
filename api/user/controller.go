// Package user exposes read-only lookups against the user directory.
package user

import (
	"savoria/api/ctxutil"
	"savoria/api/response"
	"savoria/domain/user"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	users user.Directory
}

func NewController(users user.Directory) *Controller {
	return &Controller{users: users}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/me", c.Me)
	router.GET("/users/:id", c.GetUser)
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

type ActorResponse struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`
}

func toResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email.String(),
		Role:     string(u.Role),
		Active:   u.Active,
	}
}

// Me GET /api/v1/me reports the actor resolved for this request.
func (c *Controller) Me(ctx *gin.Context) {
	actor := ctxutil.Actor(ctx)
	response.HandleSuccess(ctx, ActorResponse{ID: actor.ID, Name: actor.Name, Kind: string(actor.Kind)}, "actor resolved")
}

// GetUser GET /api/v1/users/:id
func (c *Controller) GetUser(ctx *gin.Context) {
	u, err := c.users.FindByID(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, toResponse(u), "user retrieved")
}
