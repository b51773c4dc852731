package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
	"studyplan-subscription/internal/infra/payment"
)

// momoAck is the acknowledgement shape MoMo's IPN expects; resultCode 0 stops
// redelivery, anything else asks for another attempt.
type momoAck struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

type senpayAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (s *Server) momoWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeJSONFields(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, momoAck{ResultCode: 1, Message: "invalid payload"})
			return
		}

		_, err = s.webhookUC.Process(r.Context(), model.PaymentMethodMomo, fields)
		status, ok := webhookStatus(err)
		if !ok {
			s.log.Error().Err(err).Msg("momo webhook processing failed")
		}
		ack := momoAck{Message: "ok"}
		if !ok {
			ack = momoAck{ResultCode: 1, Message: "rejected"}
		}
		writeJSON(w, status, ack)
	}
}

func (s *Server) senpayWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := decodeSenpayFields(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, senpayAck{Success: false, Message: "invalid payload"})
			return
		}

		_, err = s.webhookUC.Process(r.Context(), model.PaymentMethodSenpay, fields)
		status, ok := webhookStatus(err)
		if !ok {
			s.log.Error().Err(err).Msg("senpay webhook processing failed")
		}
		writeJSON(w, status, senpayAck{Success: ok})
	}
}

// webhookStatus maps processing outcomes to HTTP statuses. A duplicate counts
// as processed; providers only care that we acknowledged.
func webhookStatus(err error) (int, bool) {
	switch {
	case err == nil:
		return http.StatusOK, true
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusBadRequest, false
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, false
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, domain.ErrPaymentNotPending):
		return http.StatusUnprocessableEntity, false
	case errors.Is(err, domain.ErrPaymentLocked):
		return http.StatusConflict, false
	default:
		return http.StatusInternalServerError, false
	}
}

// decodeJSONFields flattens a JSON webhook body to the string fields signature
// verification runs over. Numbers stay verbatim (json.Number) so recomputed
// signatures match what the provider signed.
func decodeJSONFields(body io.Reader) (map[string]string, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return payment.FlattenFields(raw), nil
}

// decodeSenpayFields accepts either the JSON notification or its form-encoded
// variant.
func decodeSenpayFields(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(values))
		for k := range values {
			fields[k] = values.Get(k)
		}
		return fields, nil
	}
	return decodeJSONFields(bytes.NewReader(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
