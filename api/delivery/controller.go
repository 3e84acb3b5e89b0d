// Package delivery exposes driver assignment, driver reported statuses and
// cash collection.
package delivery

import (
	"net/http"

	"savoria/api/ctxutil"
	"savoria/api/response"
	"savoria/application/fulfillment"
	domaindelivery "savoria/domain/delivery"
	"savoria/domain/shared"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service *fulfillment.Service
}

func NewController(service *fulfillment.Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	deliveries := router.Group("/deliveries")
	{
		deliveries.POST("/:id/driver", c.AssignDriver)
		deliveries.DELETE("/:id/driver", c.UnassignDriver)
		deliveries.PUT("/:id/status", c.UpdateStatus)
		deliveries.POST("/:id/cash-collection", c.ConfirmCashCollection)
	}
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// AssignDriver POST /api/v1/deliveries/:id/driver
func (c *Controller) AssignDriver(ctx *gin.Context) {
	var req AssignDriverRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.AssignDriver(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req.DriverID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "driver assigned")
}

// UnassignDriver DELETE /api/v1/deliveries/:id/driver
func (c *Controller) UnassignDriver(ctx *gin.Context) {
	view, err := c.service.UnassignDriver(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "driver unassigned")
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus PUT /api/v1/deliveries/:id/status
func (c *Controller) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.UpdateDeliveryStatus(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), domaindelivery.Status(req.Status))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "delivery status updated")
}

type CashCollectionRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// ConfirmCashCollection POST /api/v1/deliveries/:id/cash-collection
func (c *Controller) ConfirmCashCollection(ctx *gin.Context) {
	var req CashCollectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	amount, err := shared.NewMoney(req.Amount)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	view, err := c.service.ConfirmCashCollection(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), amount)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "cash collection confirmed")
}
