package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/photo-api/internal/utils/platformerrors"
)

// MsgInternalServerError is the only message a 5xx response ever carries.
const MsgInternalServerError = "Internal server error"

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"` // UUID from PlatformError
	RequestID string `json:"request_id,omitempty"`
}

// InternalServerError is the body used for every unhandled failure.
func InternalServerError(requestID string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		Error:     MsgInternalServerError,
		RequestID: requestID,
	}
}

// HandleError handles domain errors and returns appropriate HTTP responses.
// The error is attached to the gin context so the access log carries the
// internal detail.
func HandleError(reqCtx *gin.Context, err error, message string) {
	_ = reqCtx.Error(err)

	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())
		if statusCode >= http.StatusInternalServerError {
			errResp := InternalServerError(domainErr.GetRequestID())
			errResp.Code = domainErr.GetUUID()
			reqCtx.AbortWithStatusJSON(statusCode, errResp)
			return
		}

		errorMessage := domainErr.Message
		if errorMessage == "" {
			errorMessage = message
		}

		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Success:   false,
			Error:     errorMessage,
			Code:      domainErr.GetUUID(),
			RequestID: domainErr.GetRequestID(),
		})
		return
	}

	// Non-platform errors
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, InternalServerError(""))
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	HandleError(reqCtx, platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid), message)
}
