package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/zyra/internal/auth/domain"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"golang.org/x/sync/errgroup"
)

type dashboardResponse struct {
	User    authdomain.UserView `json:"user"`
	Profile *authdomain.Profile `json:"profile"`
	*usagedomain.DashboardView
}

type trackToolAccessRequest struct {
	ToolName string `json:"toolName"`
}

type logActivityRequest struct {
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ToolUsed    string         `json:"toolUsed"`
	Metadata    map[string]any `json:"metadata"`
}

type updateUsageRequest struct {
	Field     string `json:"field"`
	Increment int64  `json:"increment"`
}

type refreshMetricsResponse struct {
	Metrics []usagedomain.RealtimeMetric `json:"realtimeMetrics"`
}

func (s *Server) GetDashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var (
		me   *authdomain.Me
		view *usagedomain.DashboardView
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		me, err = s.authsvc.Me(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		view, err = s.usagesvc.Dashboard(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{
		User:          me.User,
		Profile:       me.Profile,
		DashboardView: view,
	})
}

func (s *Server) InitializeDashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := s.usagesvc.Initialize(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) TrackToolAccess(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req trackToolAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	access, err := s.usagesvc.TrackToolAccess(c.Request.Context(), userID, req.ToolName)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

func (s *Server) LogActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req logActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entry, err := s.usagesvc.RecordActivity(c.Request.Context(), usagedomain.RecordActivityRequest{
		UserID:      userID,
		Action:      req.Action,
		Description: req.Description,
		ToolUsed:    req.ToolUsed,
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) UpdateUsage(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req updateUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	field, err := usagedomain.ParseStatField(req.Field)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.usagesvc.IncrementStat(c.Request.Context(), userID, field, req.Increment)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) RefreshMetrics(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	samples, err := s.usagesvc.GenerateSampleMetrics(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, refreshMetricsResponse{Metrics: samples})
}
