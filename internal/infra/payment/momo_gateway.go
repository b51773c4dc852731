package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"studyplan-subscription/internal/config"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MomoGateway)(nil)

// MomoGateway implements the gateway port for the MoMo wallet. Requests are
// signed with a hex HMAC over MoMo's fixed field subset; webhooks are signed
// over every delivered field.
type MomoGateway struct {
	cfg           config.MomoConfig
	client        *RetryClient
	requestSigner *Signer
	webhookSigner *Signer
	log           *zerolog.Logger
}

// momoRequestSignatureFields is the exact set MoMo includes in the
// payment-creation signature, per their captureWallet contract.
var momoRequestSignatureFields = []string{
	"accessKey", "amount", "extraData", "ipnUrl",
	"orderId", "orderInfo", "partnerCode", "redirectUrl", "requestId",
}

func NewMomoGateway(cfg config.MomoConfig, client *RetryClient, logger *zerolog.Logger) *MomoGateway {
	l := logger.With().Str("component", "MomoGateway").Logger()
	return &MomoGateway{
		cfg:           cfg,
		client:        client,
		requestSigner: NewSigner(cfg.SecretKey, EncodingHex, momoRequestSignatureFields...),
		webhookSigner: NewSigner(cfg.SecretKey, EncodingHex),
		log:           &l,
	}
}

func (g *MomoGateway) Name() model.PaymentMethod { return model.PaymentMethodMomo }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	PartnerName string `json:"partnerName"`
	StoreID     string `json:"storeId,omitempty"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message"`
	ResultCode   int    `json:"resultCode"`
	PayURL       string `json:"payUrl"`
}

func (g *MomoGateway) CreatePayment(ctx context.Context, req adapter.CreateRequest) (*adapter.CreateResult, error) {
	requestID := ulid.Make().String()
	amount := req.Amount.IntPart() // MoMo takes whole VND

	signature := g.requestSigner.Sign(map[string]string{
		"accessKey":   g.cfg.AccessKey,
		"amount":      strconv.FormatInt(amount, 10),
		"extraData":   "",
		"ipnUrl":      req.NotifyURL,
		"orderId":     req.OrderID,
		"orderInfo":   req.Description,
		"partnerCode": g.cfg.PartnerCode,
		"redirectUrl": req.ReturnURL,
		"requestId":   requestID,
	})

	payload := momoCreateRequest{
		PartnerCode: g.cfg.PartnerCode,
		PartnerName: g.cfg.PartnerName,
		StoreID:     g.cfg.StoreID,
		RequestID:   requestID,
		Amount:      amount,
		OrderID:     req.OrderID,
		OrderInfo:   req.Description,
		RedirectURL: req.ReturnURL,
		IPNURL:      req.NotifyURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Signature:   signature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal momo request: %w", err)
	}

	resp, err := g.client.Post(ctx, g.cfg.APIURL, "application/json", body, nil)
	if err != nil {
		return nil, fmt.Errorf("momo request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read momo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("momo: HTTP %d", resp.StatusCode)
	}

	var out momoCreateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse momo response: %w", err)
	}
	if out.ResultCode != 0 {
		msg := out.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("momo: code %d: %s", out.ResultCode, msg)
	}
	if out.PayURL == "" {
		return nil, fmt.Errorf("parse momo response: missing payUrl")
	}

	g.log.Info().Str("order_id", req.OrderID).Str("request_id", requestID).Msg("momo payment request created")
	return &adapter.CreateResult{
		PayURL:    out.PayURL,
		RequestID: requestID,
		Raw: map[string]any{
			"request_id":    out.RequestID,
			"order_id":      out.OrderID,
			"amount":        out.Amount,
			"response_time": out.ResponseTime,
			"message":       out.Message,
			"pay_url":       out.PayURL,
		},
	}, nil
}

func (g *MomoGateway) VerifyWebhookSignature(fields map[string]string, signature string) bool {
	return g.webhookSigner.Verify(fields, signature)
}

// ParseWebhook classifies a MoMo IPN: resultCode 0 means paid, anything else
// is a failure for this order.
func (g *MomoGateway) ParseWebhook(fields map[string]string) (*adapter.WebhookResult, error) {
	orderID := fields["orderId"]
	if orderID == "" {
		return nil, fmt.Errorf("momo webhook: missing orderId")
	}
	code, err := strconv.Atoi(fields["resultCode"])
	if err != nil {
		return nil, fmt.Errorf("momo webhook: bad resultCode %q", fields["resultCode"])
	}
	return &adapter.WebhookResult{
		OrderID:   orderID,
		Succeeded: code == 0,
		TransactionData: map[string]any{
			"trans_id":      fields["transId"],
			"result_code":   code,
			"message":       fields["message"],
			"pay_type":      fields["payType"],
			"response_time": fields["responseTime"],
			"extra_data":    fields["extraData"],
		},
	}, nil
}
