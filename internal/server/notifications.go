package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/zyra/internal/notification/domain"
)

type markAllReadResponse struct {
	Updated int64 `json:"updated"`
}

func (s *Server) ListNotifications(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req notificationdomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateNotification(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req notificationdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	n, err := s.notificationSvc.Create(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) UpdateNotification(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req notificationdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Read == nil {
		AbortWithError(c, notificationdomain.ErrInvalidRead)
		return
	}

	n, err := s.notificationSvc.SetRead(c.Request.Context(), userID, id, *req.Read)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	updated, err := s.notificationSvc.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, markAllReadResponse{Updated: updated})
}

func (s *Server) DeleteNotification(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.notificationSvc.Delete(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
