package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studyplan-subscription/internal/domain"
	"studyplan-subscription/internal/domain/model"
)

type paymentCreateRequest struct {
	PlanID string `json:"plan_id"`
	Method string `json:"method"` // momo|senpay
}

type paymentResponse struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"plan_id"`
	Method      string    `json:"method"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	resp := paymentResponse{
		ID:        p.ID,
		PlanID:    p.PlanID,
		Method:    string(p.Method),
		Amount:    p.Amount.String(),
		Status:    string(p.Status),
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
	}
	// The checkout target lives in the provider blob under one of two keys.
	if u, ok := p.TransactionData["pay_url"].(string); ok && u != "" {
		resp.CheckoutURL = u
	} else if u, ok := p.TransactionData["checkout_url"].(string); ok && u != "" {
		resp.CheckoutURL = u
	}
	return resp
}

func (s *Server) paymentCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req paymentCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		p, err := s.paymentUC.Create(ctx, userIDFrom(ctx), req.PlanID, model.PaymentMethod(req.Method))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrMethodNotSupported):
				http.Error(w, "Unsupported payment method", http.StatusBadRequest)
			case errors.Is(err, domain.ErrPlanInactive):
				http.Error(w, "Plan is not active", http.StatusUnprocessableEntity)
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Plan not found", http.StatusNotFound)
			default:
				s.log.Error().Err(err).Msg("payment creation failed")
				http.Error(w, "Failed to create payment", http.StatusBadGateway)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(toPaymentResponse(p))
	}
}

func (s *Server) paymentsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payments, err := s.paymentUC.ListByUser(ctx, userIDFrom(ctx))
		if err != nil {
			http.Error(w, "Failed to list payments", http.StatusInternalServerError)
			return
		}

		data := make([]paymentResponse, 0, len(payments))
		for _, p := range payments {
			data = append(data, toPaymentResponse(p))
		}
		response := struct {
			Data []paymentResponse `json:"data"`
		}{Data: data}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func (s *Server) paymentGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "Payment ID is required", http.StatusBadRequest)
			return
		}

		p, err := s.paymentUC.GetForUser(ctx, userIDFrom(ctx), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get payment", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toPaymentResponse(p))
	}
}

type profileResponse struct {
	ID                    string        `json:"id"`
	Email                 string        `json:"email"`
	Name                  string        `json:"name,omitempty"`
	Plan                  *planResponse `json:"plan,omitempty"`
	SubscriptionExpiresAt *time.Time    `json:"subscription_expires_at,omitempty"`
}

func (s *Server) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		profile, err := s.userUC.Profile(ctx, userIDFrom(ctx))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			s.log.Error().Err(err).Msg("profile lookup failed")
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
			return
		}

		resp := profileResponse{
			ID:                    profile.User.ID,
			Email:                 profile.User.Email,
			Name:                  profile.User.Name,
			SubscriptionExpiresAt: profile.SubscriptionExpiresAt,
		}
		if profile.Plan != nil {
			p := toPlanResponse(profile.Plan)
			resp.Plan = &p
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}

type planResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Price        string         `json:"price"`
	DurationDays int            `json:"duration_days"`
	Features     map[string]any `json:"features,omitempty"`
}

func toPlanResponse(p *model.SubscriptionPlan) planResponse {
	return planResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.String(),
		DurationDays: p.DurationDays,
		Features:     p.Features,
	}
}

func (s *Server) plansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.planUC.ListActive(r.Context())
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}

		data := make([]planResponse, 0, len(plans))
		for _, p := range plans {
			data = append(data, toPlanResponse(p))
		}
		response := struct {
			Data []planResponse `json:"data"`
		}{Data: data}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func (s *Server) planGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		plan, err := s.planUC.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get plan", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toPlanResponse(plan))
	}
}
