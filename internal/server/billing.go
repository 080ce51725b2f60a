package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/config"
)

type subscriptionPlanRequest struct {
	Plan string `json:"plan"`
}

type addPaymentMethodRequest struct {
	Token string `json:"token"`
}

type plansResponse struct {
	Plans []config.Plan `json:"plans"`
}

type invoicesResponse struct {
	Invoices []billingdomain.Invoice `json:"invoices"`
}

type paymentMethodsResponse struct {
	PaymentMethods []billingdomain.PaymentMethod `json:"paymentMethods"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sub, err := s.billingSvc.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) CreateSubscription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req subscriptionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	to, err := s.billTo(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sub, err := s.billingSvc.Subscribe(c.Request.Context(), userID, billingdomain.SubscribeRequest{
		Plan:  req.Plan,
		Email: to.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) ChangeSubscriptionPlan(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req subscriptionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := s.billingSvc.ChangePlan(c.Request.Context(), userID, billingdomain.SubscribeRequest{Plan: req.Plan})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sub, err := s.billingSvc.Cancel(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.billingSvc.Plans(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plansResponse{Plans: plans})
}

func (s *Server) ListInvoices(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	invoices, err := s.billingSvc.ListInvoices(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoicesResponse{Invoices: invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	invoice, err := s.billingSvc.GetInvoice(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// DownloadInvoicePDF buffers the whole document before writing headers.
func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	invoice, err := s.billingSvc.GetInvoice(ctx, userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	to, err := s.billTo(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.billingSvc.RenderInvoicePDF(ctx, userID, id, to, &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice-"+invoice.Number+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	methods, err := s.billingSvc.ListPaymentMethods(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentMethodsResponse{PaymentMethods: methods})
}

func (s *Server) AddPaymentMethod(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req addPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	to, err := s.billTo(c, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	method, err := s.billingSvc.AddPaymentMethod(c.Request.Context(), userID, billingdomain.AddPaymentMethodRequest{
		Token: req.Token,
		Email: to.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, method)
}

func (s *Server) SetDefaultPaymentMethod(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	method, err := s.billingSvc.SetDefaultPaymentMethod(c.Request.Context(), userID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, method)
}

func (s *Server) RemovePaymentMethod(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.billingSvc.RemovePaymentMethod(c.Request.Context(), userID, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// billTo prefers the business name from the profile over the display name.
func (s *Server) billTo(c *gin.Context, userID snowflake.ID) (billingdomain.BillTo, error) {
	me, err := s.authsvc.Me(c.Request.Context(), userID)
	if err != nil {
		return billingdomain.BillTo{}, err
	}
	name := me.User.DisplayName
	if me.Profile != nil && strings.TrimSpace(me.Profile.BusinessName) != "" {
		name = me.Profile.BusinessName
	}
	if strings.TrimSpace(name) == "" {
		name = me.User.Email
	}
	return billingdomain.BillTo{Name: name, Email: me.User.Email}, nil
}
