package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	aitextdomain "github.com/smallbiznis/zyra/internal/aitext/domain"
)

func (s *Server) GenerateDescription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req aitextdomain.DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.aiSvc.GenerateDescription(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) OptimizeSEO(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req aitextdomain.SEORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.aiSvc.OptimizeSEO(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
