package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"studyplan-subscription/internal/usecase"
)

type Server struct {
	paymentUC usecase.PaymentUseCase
	webhookUC usecase.WebhookUseCase
	planUC    usecase.SubscriptionPlanUseCase
	userUC    usecase.UserUseCase
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	webhookUC usecase.WebhookUseCase,
	planUC usecase.SubscriptionPlanUseCase,
	userUC usecase.UserUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC: paymentUC,
		webhookUC: webhookUC,
		planUC:    planUC,
		userUC:    userUC,
		auth:      auth,
		log:       &l,
	}
}

// Router wires the public webhook endpoints, the authenticated payment API,
// and the operational endpoints.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Provider callbacks authenticate via their payload signature, not JWT.
	r.Post("/webhooks/momo", s.momoWebhookHandler())
	r.Post("/webhooks/senpay", s.senpayWebhookHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/me", s.profileHandler())
		r.Get("/plans", s.plansListHandler())
		r.Get("/plans/{id}", s.planGetHandler())
		r.Post("/payments", s.paymentCreateHandler())
		r.Get("/payments", s.paymentsListHandler())
		r.Get("/payments/{id}", s.paymentGetHandler())
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
