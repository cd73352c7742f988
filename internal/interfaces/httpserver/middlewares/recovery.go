package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/photo-api/internal/interfaces/httpserver/responses"
)

// Recovery converts panics into the generic 500 body. The panic value and
// stack are logged, never returned.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("%v", recovered)
			}
			if errors.Is(err, http.ErrAbortHandler) || errors.Is(err, syscall.EPIPE) {
				c.Abort()
				return
			}

			logger.Error().
				Err(err).
				Str("request_id", RequestIDFromContext(c)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, responses.InternalServerError(RequestIDFromContext(c)))
		}()
		c.Next()
	}
}
