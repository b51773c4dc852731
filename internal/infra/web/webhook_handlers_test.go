//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
)

func TestMomoWebhookHandler(t *testing.T) {
	t.Run("acknowledges a processed notification", func(t *testing.T) {
		var gotMethod model.PaymentMethod
		var gotFields map[string]string
		webhookUC := &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
				gotMethod = method
				gotFields = fields
				return samplePayment(), nil
			},
		}
		srv, _ := testServer(nil, webhookUC, nil)

		body := `{"orderId":"pay-1","resultCode":0,"amount":50000,"signature":"abc"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var ack momoAck
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatal(err)
		}
		if ack.ResultCode != 0 {
			t.Errorf("ack resultCode = %d, want 0", ack.ResultCode)
		}
		if gotMethod != model.PaymentMethodMomo {
			t.Errorf("method = %s", gotMethod)
		}
		// Numbers must keep their wire form for signature verification.
		if gotFields["resultCode"] != "0" || gotFields["amount"] != "50000" {
			t.Errorf("fields = %v", gotFields)
		}
	})

	t.Run("maps processing failures to statuses with a failure ack", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{domain.ErrInvalidSignature, http.StatusBadRequest},
			{domain.ErrNotFound, http.StatusNotFound},
			{domain.ErrPaymentNotPending, http.StatusUnprocessableEntity},
			{domain.ErrPaymentLocked, http.StatusConflict},
		}
		for _, tc := range cases {
			webhookUC := &mockWebhookUC{
				ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
					return nil, tc.err
				},
			}
			srv, _ := testServer(nil, webhookUC, nil)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader(`{"orderId":"x"}`))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
			}
			var ack momoAck
			_ = json.Unmarshal(rec.Body.Bytes(), &ack)
			if ack.ResultCode == 0 {
				t.Errorf("%v: ack claims success", tc.err)
			}
		}
	})

	t.Run("rejects a non-JSON body outright", func(t *testing.T) {
		srv, _ := testServer(nil, &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
				t.Error("Process called for malformed body")
				return nil, nil
			},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/momo", strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestSenpayWebhookHandler(t *testing.T) {
	t.Run("flattens a nested JSON notification", func(t *testing.T) {
		var gotFields map[string]string
		webhookUC := &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
				gotFields = fields
				return samplePayment(), nil
			},
		}
		srv, _ := testServer(nil, webhookUC, nil)

		body := `{"notification_type":"order.paid","order":{"order_invoice_number":"pay-1","order_amount":250000},"signature":"abc"}`
		req := httptest.NewRequest(http.MethodPost, "/webhooks/senpay", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var ack senpayAck
		if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
			t.Fatal(err)
		}
		if !ack.Success {
			t.Error("ack claims failure")
		}
		if gotFields["order.order_invoice_number"] != "pay-1" {
			t.Errorf("fields = %v", gotFields)
		}
		if gotFields["order.order_amount"] != "250000" {
			t.Errorf("amount lost wire form: %v", gotFields["order.order_amount"])
		}
	})

	t.Run("accepts the form-encoded variant", func(t *testing.T) {
		var gotFields map[string]string
		webhookUC := &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
				gotFields = fields
				return samplePayment(), nil
			},
		}
		srv, _ := testServer(nil, webhookUC, nil)

		form := url.Values{}
		form.Set("notification_type", "order.paid")
		form.Set("order.order_invoice_number", "pay-1")
		form.Set("signature", "abc")
		req := httptest.NewRequest(http.MethodPost, "/webhooks/senpay", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if gotFields["order.order_invoice_number"] != "pay-1" {
			t.Errorf("fields = %v", gotFields)
		}
	})

	t.Run("signals failure in the ack on rejection", func(t *testing.T) {
		webhookUC := &mockWebhookUC{
			ProcessFunc: func(ctx context.Context, method model.PaymentMethod, fields map[string]string) (*model.Payment, error) {
				return nil, domain.ErrInvalidSignature
			},
		}
		srv, _ := testServer(nil, webhookUC, nil)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/senpay", strings.NewReader(`{"a":"b"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		var ack senpayAck
		_ = json.Unmarshal(rec.Body.Bytes(), &ack)
		if ack.Success {
			t.Error("ack claims success")
		}
	})
}
