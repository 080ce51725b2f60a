package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/zyra/internal/auth/domain"
	"github.com/smallbiznis/zyra/internal/observability/logger"
	"go.uber.org/zap"
)

type sessionResponse struct {
	User      authdomain.UserView `json:"user"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

func (s *Server) Register(c *gin.Context) {
	var req authdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	ctx := c.Request.Context()
	result, err := s.authsvc.Register(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	// Best effort; the dashboard calls initialize on load.
	if userID, err := snowflake.ParseString(result.User.ID); err == nil {
		if _, err := s.usagesvc.Initialize(ctx, userID); err != nil {
			logger.FromContext(ctx).Warn("initialize usage stats failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, sessionResponse{User: result.User, ExpiresAt: result.ExpiresAt})
}

func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, sessionResponse{User: result.User, ExpiresAt: result.ExpiresAt})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			logger.FromContext(c.Request.Context()).Debug("logout of unknown session", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	me, err := s.authsvc.Me(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (s *Server) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req authdomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	profile, err := s.authsvc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
