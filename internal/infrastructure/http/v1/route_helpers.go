// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// ResourceRouteHandler is implemented by handlers of append-mostly resources
// that are listed, created and read by id.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

// ResourceCreator creates a resource with POST on the collection.
type ResourceCreator interface {
	Create(c *gin.Context)
}

// ResourceDeleter removes a resource with DELETE on the item.
type ResourceDeleter interface {
	Delete(c *gin.Context)
}

// RegisterResourceRoutes registers the collection and item routes of a
// resource. param names the item path parameter. Create and Delete are
// registered when the handler implements them.
//
// Usage:
//
//	handler := handlers.NewFiscalYearHandler(base, c.FiscalYears)
//	RegisterResourceRoutes(api.Group("/fiscal-years"), handler, "id")
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler, param string) {
	group.GET("", handler.List)
	group.GET("/:"+param, handler.Get)

	if creator, ok := handler.(ResourceCreator); ok {
		group.POST("", creator.Create)
	}
	if deleter, ok := handler.(ResourceDeleter); ok {
		group.DELETE("/:"+param, deleter.Delete)
	}
}
