package response

import (
	stdErrors "errors"
	"net/http"

	"savoria/domain/shared"
	"savoria/infrastructure/persistence"
	"savoria/pkg/errors"
	"savoria/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var httpStatusMap = map[errors.ErrorCode]int{
	errors.CodeInternal:       http.StatusInternalServerError,
	errors.CodeBadRequest:     http.StatusBadRequest,
	errors.CodeUnauthorized:   http.StatusUnauthorized,
	errors.CodeForbidden:      http.StatusForbidden,
	errors.CodeNotFound:       http.StatusNotFound,
	errors.CodeConflict:       http.StatusConflict,
	errors.CodeTooManyRequest: http.StatusTooManyRequests,
	errors.CodeValidation:     http.StatusBadRequest,
	errors.CodeTooLarge:       http.StatusRequestEntityTooLarge,

	// the business rule rejections all answer 400
	errors.CodeInvalidTransition: http.StatusBadRequest,
	errors.CodeInvalidState:      http.StatusBadRequest,
	errors.CodeDriverUnavailable: http.StatusBadRequest,
	errors.CodeSlipOutstanding:   http.StatusBadRequest,
	errors.CodeNotRefundable:     http.StatusBadRequest,
	errors.CodeGateway:           http.StatusBadGateway,
	errors.CodeUserNotActive:     http.StatusForbidden,
}

// StatusFor maps an application error code to its HTTP status.
func StatusFor(code errors.ErrorCode) int {
	if status, ok := httpStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		s, _ := id.(string)
		return s
	}
	return ""
}

func requestLogger(c *gin.Context, fields ...zap.Field) *zap.Logger {
	ctx := persistence.ContextWithRequestID(c.Request.Context(), GetRequestID(c))
	return logger.FromContext(ctx, append(fields,
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()))...)
}

func abort(c *gin.Context, status int, code errors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, &Response{
		Error:     string(code),
		Message:   message,
		Code:      status,
		RequestID: GetRequestID(c),
	})
}

// HandleError answers failures that never reached the service, such as
// binding errors. An oversized body is reported as 413 whatever status the
// caller asked for.
func HandleError(c *gin.Context, err error, message string, status int) {
	code := errors.CodeBadRequest
	var tooLarge *http.MaxBytesError
	if stdErrors.As(err, &tooLarge) {
		code, status, message = errors.CodeTooLarge, http.StatusRequestEntityTooLarge, "request body too large"
	}

	requestLogger(c, zap.Int("status", status)).Warn(message, zap.Error(err))
	abort(c, status, code, message)
}

// HandleAppError classifies err and answers with the mapped status. Server
// side failures are logged with the stack captured where the error was built.
func HandleAppError(c *gin.Context, err error) {
	appErr := errors.FromDomainError(err)
	status := StatusFor(appErr.Code)

	log := requestLogger(c,
		zap.String("error_code", string(appErr.Code)),
		zap.Int("status", status),
		zap.NamedError("cause", appErr.Err))
	if status >= http.StatusInternalServerError {
		var stacker shared.Stacker
		if stdErrors.As(err, &stacker) {
			log = log.With(zap.Strings("stack", stacker.Stack()))
		}
		log.Error(appErr.Message)
	} else {
		log.Warn(appErr.Message)
	}

	abort(c, status, appErr.Code, appErr.Message)
}
