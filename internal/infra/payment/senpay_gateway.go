package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"studyplan-subscription/internal/config"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SenpayGateway)(nil)

// SenpayGateway implements the gateway port for SenPay bank transfers.
// Checkout requests are form-encoded and signed with a base64 HMAC over every
// form field; the provider answers with either a redirect to the hosted
// checkout page or a JSON body carrying the checkout URL.
type SenpayGateway struct {
	cfg    config.SenpayConfig
	client *RetryClient
	signer *Signer
	log    *zerolog.Logger
}

func NewSenpayGateway(cfg config.SenpayConfig, client *RetryClient, logger *zerolog.Logger) *SenpayGateway {
	l := logger.With().Str("component", "SenpayGateway").Logger()
	return &SenpayGateway{
		cfg:    cfg,
		client: client,
		signer: NewSigner(cfg.SecretKey, EncodingBase64),
		log:    &l,
	}
}

func (g *SenpayGateway) Name() model.PaymentMethod { return model.PaymentMethodSenpay }

type senpayCheckoutResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	CheckoutURL string `json:"checkout_url"`
	RedirectURL string `json:"redirect_url"`
	Data        struct {
		CheckoutURL        string `json:"checkout_url"`
		TransactionID      string `json:"transaction_id"`
		OrderInvoiceNumber string `json:"order_invoice_number"`
	} `json:"data"`
}

func (g *SenpayGateway) CreatePayment(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error) {
	fields := map[string]string{
		"merchant":             g.cfg.MerchantID,
		"order_amount":         req.Amount.String(),
		"order_invoice_number": req.OrderID,
		"order_description":    req.Description,
		"return_url":           req.ReturnURL,
		"ipn_url":              req.NotifyURL,
	}
	signature := g.signer.Sign(fields)

	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set(SignatureField, signature)

	resp, err := g.client.Post(ctx, g.cfg.CheckoutURL, "application/x-www-form-urlencoded", []byte(form.Encode()), http.Header{
		"Accept": []string{"application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("senpay checkout: %w", err)
	}
	defer resp.Body.Close()

	checkoutURL, raw, err := g.parseCheckoutResponse(resp)
	if err != nil {
		return nil, err
	}

	g.log.Info().Str("order_id", req.OrderID).Msg("senpay checkout created")
	return &adapter.CreateResult{
		CheckoutURL: checkoutURL,
		Raw:         raw,
	}, nil
}

func (g *SenpayGateway) parseCheckoutResponse(resp *http.Response) (string, map[string]any, error) {
	if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusSeeOther {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", nil, fmt.Errorf("senpay checkout: redirect without Location")
		}
		return loc, map[string]any{"checkout_url": loc}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read senpay response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", nil, fmt.Errorf("senpay checkout: HTTP %d", resp.StatusCode)
	}

	var out senpayCheckoutResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", nil, fmt.Errorf("parse senpay response: %w", err)
	}
	checkoutURL := out.CheckoutURL
	if checkoutURL == "" {
		checkoutURL = out.RedirectURL
	}
	if checkoutURL == "" {
		checkoutURL = out.Data.CheckoutURL
	}
	if !out.Success && checkoutURL == "" {
		msg := out.Message
		if msg == "" {
			msg = "unknown error"
		}
		return "", nil, fmt.Errorf("senpay: %s", msg)
	}
	if checkoutURL == "" {
		return "", nil, fmt.Errorf("parse senpay response: missing checkout_url")
	}
	return checkoutURL, map[string]any{
		"checkout_url":   checkoutURL,
		"transaction_id": out.Data.TransactionID,
	}, nil
}

func (g *SenpayGateway) VerifyWebhookSignature(fields map[string]string, signature string) bool {
	return g.signer.Verify(fields, signature)
}

// ParseWebhook classifies a SenPay notification: an explicit "order.paid"
// notification type confirms the payment, anything else fails the order.
func (g *SenpayGateway) ParseWebhook(fields map[string]string) (*adapter.WebhookResult, error) {
	orderID := fields["order.order_invoice_number"]
	if orderID == "" {
		return nil, fmt.Errorf("senpay webhook: missing order_invoice_number")
	}
	return &adapter.WebhookResult{
		OrderID:   orderID,
		Succeeded: fields["notification_type"] == "order.paid",
		TransactionData: map[string]any{
			"notification_type":   fields["notification_type"],
			"order_status":        fields["order.order_status"],
			"order_amount":        fields["order.order_amount"],
			"transaction_id":      fields["transaction.id"],
			"transaction_gateway": fields["transaction.gateway"],
			"reference_number":    fields["transaction.reference_number"],
		},
	}, nil
}

// OrderStatus is the normalized answer of the order detail API, used by the
// payment reconciler when a webhook went missing.
type OrderStatus struct {
	InvoiceNumber string
	Amount        string
	Status        string
	TransactionID string
}

func (s *OrderStatus) Paid() bool { return s.Status == "paid" }

type senpayOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		OrderInvoiceNumber string `json:"order_invoice_number"`
		OrderAmount        string `json:"order_amount"`
		OrderStatus        string `json:"order_status"`
		TransactionID      string `json:"transaction_id"`
	} `json:"data"`
}

// QueryOrderStatus fetches the order outcome directly from SenPay with Basic
// auth (merchant id + secret).
func (g *SenpayGateway) QueryOrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/order/detail/%s", g.cfg.APIURL, url.PathEscape(orderID))
	credentials := base64.StdEncoding.EncodeToString([]byte(g.cfg.MerchantID + ":" + g.cfg.SecretKey))

	resp, err := g.client.Get(ctx, endpoint, http.Header{
		"Authorization": []string{"Basic " + credentials},
		"Content-Type":  []string{"application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("senpay order query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read senpay response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("senpay order query: HTTP %d", resp.StatusCode)
	}

	var out senpayOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse senpay response: %w", err)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("senpay: %s", msg)
	}
	return &OrderStatus{
		InvoiceNumber: out.Data.OrderInvoiceNumber,
		Amount:        out.Data.OrderAmount,
		Status:        out.Data.OrderStatus,
		TransactionID: out.Data.TransactionID,
	}, nil
}
