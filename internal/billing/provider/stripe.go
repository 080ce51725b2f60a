package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/config"
)

const DefaultStripeBaseURL = "https://api.stripe.com"

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type stripeSubscription struct {
	ID                 string `json:"id"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"items"`
}

type stripePaymentMethod struct {
	ID   string `json:"id"`
	Card struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	} `json:"card"`
}

type stripeObject struct {
	ID string `json:"id"`
}

// Stripe talks to the Stripe REST API with form-encoded requests.
type Stripe struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStripe(apiKey, baseURL string) *Stripe {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultStripeBaseURL
	}
	return &Stripe{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Stripe) Name() string { return "stripe" }

func (c *Stripe) CreateCustomer(ctx context.Context, userID snowflake.ID, email string) (string, error) {
	values := url.Values{}
	values.Set("metadata[user_id]", userID.String())
	if email != "" {
		values.Set("email", email)
	}
	var out stripeObject
	if err := c.do(ctx, http.MethodPost, "/v1/customers", values, "customer:"+userID.String(), &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: stripe_response_invalid", domain.ErrUpstream)
	}
	return out.ID, nil
}

func (c *Stripe) CreateSubscription(ctx context.Context, customerRef string, plan config.Plan, idempotencyKey string) (*domain.ProviderSubscription, error) {
	if plan.PriceID == "" {
		return nil, fmt.Errorf("%w: plan %q has no price id", domain.ErrUpstream, plan.Code)
	}
	values := url.Values{}
	values.Set("customer", customerRef)
	values.Set("items[0][price]", plan.PriceID)
	values.Set("metadata[plan]", plan.Code)

	var out stripeSubscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions", values, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return out.toDomain()
}

func (c *Stripe) ChangePlan(ctx context.Context, sub *domain.Subscription, plan config.Plan) (*domain.ProviderSubscription, error) {
	if plan.PriceID == "" {
		return nil, fmt.Errorf("%w: plan %q has no price id", domain.ErrUpstream, plan.Code)
	}
	values := url.Values{}
	values.Set("items[0][id]", sub.ProviderItemRef)
	values.Set("items[0][price]", plan.PriceID)
	values.Set("proration_behavior", "create_prorations")
	values.Set("metadata[plan]", plan.Code)

	key := fmt.Sprintf("subscription:%s:plan:%s", sub.ProviderRef, plan.Code)
	var out stripeSubscription
	if err := c.do(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(sub.ProviderRef), values, key, &out); err != nil {
		return nil, err
	}
	return out.toDomain()
}

func (c *Stripe) CancelSubscription(ctx context.Context, sub *domain.Subscription) error {
	return c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(sub.ProviderRef), nil, "", nil)
}

func (c *Stripe) AttachPaymentMethod(ctx context.Context, customerRef, token string) (*domain.ProviderPaymentMethod, error) {
	values := url.Values{}
	values.Set("customer", customerRef)
	var out stripePaymentMethod
	path := "/v1/payment_methods/" + url.PathEscape(token) + "/attach"
	if err := c.do(ctx, http.MethodPost, path, values, "attach:"+token, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: stripe_response_invalid", domain.ErrUpstream)
	}
	return &domain.ProviderPaymentMethod{
		Ref:      out.ID,
		Brand:    out.Card.Brand,
		Last4:    out.Card.Last4,
		ExpMonth: out.Card.ExpMonth,
		ExpYear:  out.Card.ExpYear,
	}, nil
}

func (c *Stripe) SetDefaultPaymentMethod(ctx context.Context, customerRef, methodRef string) error {
	values := url.Values{}
	values.Set("invoice_settings[default_payment_method]", methodRef)
	return c.do(ctx, http.MethodPost, "/v1/customers/"+url.PathEscape(customerRef), values, "", nil)
}

func (c *Stripe) DetachPaymentMethod(ctx context.Context, methodRef string) error {
	return c.do(ctx, http.MethodPost, "/v1/payment_methods/"+url.PathEscape(methodRef)+"/detach", url.Values{}, "", nil)
}

// do sends one request. Every failure is reported as ErrUpstream and never
// retried here.
func (c *Stripe) do(ctx context.Context, method, path string, values url.Values, idempotencyKey string, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: stripe api key not configured", domain.ErrUpstream)
	}

	var body io.Reader = strings.NewReader("")
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		message := "stripe_request_failed"
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err == nil {
			if m := strings.TrimSpace(stripeErr.Error.Message); m != "" {
				message = m
			}
		}
		return fmt.Errorf("%w: stripe %d: %s", domain.ErrUpstream, resp.StatusCode, message)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return nil
}

func (s stripeSubscription) toDomain() (*domain.ProviderSubscription, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("%w: stripe_response_invalid", domain.ErrUpstream)
	}
	out := &domain.ProviderSubscription{
		Ref:         s.ID,
		Status:      s.Status,
		PeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
	}
	if len(s.Items.Data) > 0 {
		out.ItemRef = s.Items.Data[0].ID
	}
	return out, nil
}

var _ domain.Provider = (*Stripe)(nil)
