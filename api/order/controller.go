/*
Package order exposes order placement, status updates, the tracking
timeline and refund quotes.

Binding failures answer 400 through response.HandleError. Everything the
service rejects goes through response.HandleAppError, which classifies the
error and picks the status code.
*/
package order

import (
	"net/http"

	"savoria/api/ctxutil"
	"savoria/api/response"
	"savoria/application/fulfillment"
	domainorder "savoria/domain/order"
	"savoria/domain/payment"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service *fulfillment.Service
}

func NewController(service *fulfillment.Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", c.CreateOrder)
		orders.GET("", c.ListOrders)
		orders.GET("/:id", c.GetOrder)
		orders.PUT("/:id/status", c.UpdateStatus)
		orders.POST("/:id/cancel", c.CancelOrder)
		orders.GET("/:id/tracking", c.GetTracking)
		orders.POST("/:id/items", c.AddItem)
		orders.DELETE("/:id/items/:itemId", c.RemoveItem)
		orders.GET("/:id/refund-quote", c.RefundQuote)
	}
	router.GET("/customers/:customerId/orders", c.ListCustomerOrders)
}

// CreateOrder POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	var req fulfillment.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.CreateOrder(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, view, "order created")
}

// GetOrder GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	view, err := c.service.GetOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "order retrieved")
}

// ListOrders GET /api/v1/orders?status=&order_type=&customer_id=&from=&to=&limit=
func (c *Controller) ListOrders(ctx *gin.Context) {
	var filter fulfillment.OrderFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	views, err := c.service.ListOrders(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), filter)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, views, len(views), "orders retrieved")
}

// ListCustomerOrders GET /api/v1/customers/:customerId/orders
func (c *Controller) ListCustomerOrders(ctx *gin.Context) {
	views, err := c.service.ListCustomerOrders(ctxutil.WithRequestID(ctx), ctx.Param("customerId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, views, len(views), "orders retrieved")
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus PUT /api/v1/orders/:id/status
func (c *Controller) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.UpdateStatus(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), domainorder.Status(req.Status))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "order status updated")
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder POST /api/v1/orders/:id/cancel
func (c *Controller) CancelOrder(ctx *gin.Context) {
	var req CancelRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
			return
		}
	}

	view, err := c.service.CancelOrder(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req.Reason)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "order cancelled")
}

// GetTracking GET /api/v1/orders/:id/tracking
func (c *Controller) GetTracking(ctx *gin.Context) {
	entries, err := c.service.GetTracking(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, entries, len(entries), "tracking retrieved")
}

// AddItem POST /api/v1/orders/:id/items
func (c *Controller) AddItem(ctx *gin.Context) {
	var req fulfillment.LineItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.AddItem(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "item added")
}

// RemoveItem DELETE /api/v1/orders/:id/items/:itemId
func (c *Controller) RemoveItem(ctx *gin.Context) {
	view, err := c.service.RemoveItem(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), ctx.Param("itemId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "item removed")
}

// RefundQuote GET /api/v1/orders/:id/refund-quote?type=PROPORTIONAL
func (c *Controller) RefundQuote(ctx *gin.Context) {
	refundType := ctx.DefaultQuery("type", string(payment.RefundFull))

	quote, err := c.service.CalculateRefundAmount(ctxutil.WithRequestID(ctx), ctx.Param("id"), payment.RefundType(refundType))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, quote, "refund quoted")
}
