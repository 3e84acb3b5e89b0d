// Package payment exposes slip upload and review, gateway captures and refunds.
package payment

import (
	"net/http"

	"savoria/api/ctxutil"
	"savoria/api/response"
	"savoria/application/fulfillment"
	"savoria/domain/directory"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service        *fulfillment.Service
	maxUploadBytes int64
}

// NewController maxUploadBytes bounds the multipart body; 0 leaves it to the file store.
func NewController(service *fulfillment.Service, maxUploadBytes int64) *Controller {
	return &Controller{service: service, maxUploadBytes: maxUploadBytes}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/orders/:id/payment-slips", c.SubmitSlip)
	router.POST("/orders/:id/gateway-payments", c.RecordGatewayPayment)

	slips := router.Group("/payment-slips")
	{
		slips.POST("/:id/review", c.StartReview)
		slips.POST("/:id/confirm", c.ConfirmSlip)
		slips.POST("/:id/reject", c.RejectSlip)
	}

	router.POST("/payments/:id/refunds", c.Refund)
}

// SubmitSlip POST /api/v1/orders/:id/payment-slips (multipart, field "file")
func (c *Controller) SubmitSlip(ctx *gin.Context) {
	if c.maxUploadBytes > 0 {
		// multipart framing needs some room on top of the file itself
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes+64<<10)
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		response.HandleError(ctx, err, "a slip file is required", http.StatusBadRequest)
		return
	}
	file, err := header.Open()
	if err != nil {
		response.HandleError(ctx, err, "unreadable slip file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	view, err := c.service.SubmitPaymentSlip(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), fulfillment.SubmitSlipRequest{
		OrderID:        ctx.Param("id"),
		BankName:       ctx.PostForm("bank_name"),
		TransactionRef: ctx.PostForm("transaction_ref"),
		Notes:          ctx.PostForm("notes"),
		File: directory.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		},
	})
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, view, "payment slip submitted")
}

// StartReview POST /api/v1/payment-slips/:id/review
func (c *Controller) StartReview(ctx *gin.Context) {
	view, err := c.service.StartSlipReview(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "slip under review")
}

type DecisionRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func bindOptional(ctx *gin.Context, req interface{}) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return false
	}
	return true
}

// ConfirmSlip POST /api/v1/payment-slips/:id/confirm
func (c *Controller) ConfirmSlip(ctx *gin.Context) {
	var req DecisionRequest
	if !bindOptional(ctx, &req) {
		return
	}

	view, err := c.service.ConfirmPaymentSlip(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req.Notes)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "payment slip confirmed")
}

// RejectSlip POST /api/v1/payment-slips/:id/reject
func (c *Controller) RejectSlip(ctx *gin.Context) {
	var req DecisionRequest
	if !bindOptional(ctx, &req) {
		return
	}

	view, err := c.service.RejectPaymentSlip(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req.Reason, req.Notes)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "payment slip rejected")
}

type GatewayPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// RecordGatewayPayment POST /api/v1/orders/:id/gateway-payments
func (c *Controller) RecordGatewayPayment(ctx *gin.Context) {
	var req GatewayPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.RecordGatewayPayment(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req.Reference)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, view, "gateway payment recorded")
}

// Refund POST /api/v1/payments/:id/refunds
// Body carries either refund_type or amount.
func (c *Controller) Refund(ctx *gin.Context) {
	var req fulfillment.RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	view, err := c.service.RequestRefund(ctxutil.WithRequestID(ctx), ctxutil.Actor(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, view, "refund issued")
}
