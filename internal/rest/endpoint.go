package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamrekas/geyserbench/internal/domain"
	"github.com/iamrekas/geyserbench/internal/store"
)

type EndpointController struct {
	store *store.EndpointStore
}

func NewEndpointController(store *store.EndpointStore) *EndpointController {
	return &EndpointController{store: store}
}

func (c *EndpointController) RegisterEndpointRoutes(rg *gin.RouterGroup) {
	rg.GET("/endpoints", c.handleListEndpoints)
	rg.POST("/endpoints", c.handleAddEndpoint)
}

func (c *EndpointController) handleListEndpoints(ctx *gin.Context) {
	endpoints, err := c.store.List(ctx.Request.Context())
	if err == store.ErrNoEndpoints {
		ctx.JSON(http.StatusOK, []domain.Endpoint{})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, endpoints)
}

func (c *EndpointController) handleAddEndpoint(ctx *gin.Context) {
	var req domain.Endpoint
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.URL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name and url are required"})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	if err := c.store.Add(reqCtx, req); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}
