package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/photo-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates API route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all photo routes under the /api prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/api")
	group.POST("/upload", r.handlers.Photo.Upload)
	group.DELETE("/delete", r.handlers.Photo.Delete)
	group.GET("/info/:filename", r.handlers.Photo.Info)
}
