// Package payments 封装了支付服务商（Stripe）的托管结账能力。
// 服务层只依赖 Client 接口，便于在测试中替换。
package payments

import (
	"context"
	"fmt"

	"consumerai-go/internal/config"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// CheckoutSession 是对服务商会话对象的最小镜像。
// ClientReferenceID 与 Plan 在创建会话时写入，校验支付时用于
// 把会话绑定回发起购买的用户和所购套餐。
type CheckoutSession struct {
	ID                string
	URL               string
	Paid              bool
	ClientReferenceID string
	Plan              string
}

// Client defines the interface for a hosted-checkout provider.
type Client interface {
	// CreateCheckoutSession 创建一个托管结账会话并返回跳转地址。
	// clientReferenceID 标记购买者，plan 随会话元数据保存；
	// idempotencyKey 防止客户端重试造成重复扣款。
	CreateCheckoutSession(ctx context.Context, priceID, plan, customerEmail, clientReferenceID, idempotencyKey string) (*CheckoutSession, error)
	// GetCheckoutSession 拉取一个会话的当前支付状态与绑定信息。
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

type stripeClient struct {
	cfg config.StripeConfig
}

// NewClient 创建一个新的 Stripe 客户端。
func NewClient(cfg config.StripeConfig) Client {
	stripe.Key = cfg.SecretKey
	return &stripeClient{cfg: cfg}
}

// CreateCheckoutSession 创建托管结账会话。
func (c *stripeClient) CreateCheckoutSession(ctx context.Context, priceID, plan, customerEmail, clientReferenceID, idempotencyKey string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		CustomerEmail:     stripe.String(customerEmail),
		ClientReferenceID: stripe.String(clientReferenceID),
		Metadata:          map[string]string{"plan": plan},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return newCheckoutSession(s), nil
}

// GetCheckoutSession 拉取会话状态。
func (c *stripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	return newCheckoutSession(s), nil
}

func newCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		Paid:              s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		ClientReferenceID: s.ClientReferenceID,
		Plan:              s.Metadata["plan"],
	}
}
