package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/zyra/internal/observability/logger"
	productdomain "github.com/smallbiznis/zyra/internal/product/domain"
	"go.uber.org/zap"
)

func (s *Server) ListProducts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req productdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.List(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateProduct(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetProductByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	resp, err := s.productSvc.Get(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateProduct(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req productdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.productSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OptimizeAllProducts holds the per-user optimize-all lock for the whole run.
func (s *Server) OptimizeAllProducts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	token, locked, err := s.limiter.TryLockOptimizeAll(ctx, userID.String())
	if err != nil {
		logger.FromContext(ctx).Warn("optimize-all lock failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if !locked {
		s.obsMetrics.RecordOptimizeAll(ctx, "locked", 0)
		AbortWithError(c, productdomain.ErrOptimizeInFlight)
		return
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.limiter.ReleaseOptimizeAll(releaseCtx, userID.String(), token); err != nil {
			logger.FromContext(ctx).Warn("optimize-all unlock failed", zap.Error(err))
		}
	}()

	result, err := s.productSvc.OptimizeAll(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
