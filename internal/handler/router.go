package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the HTTP-level settings of the API.
type RouterConfig struct {
	APIKey         string
	RequestTimeout time.Duration
}

// Router builds the chi router with the global middleware stack.
func (h *Handler) Router(conf RouterConfig, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(APIKey(log, conf.APIKey))
		if conf.RequestTimeout > 0 {
			api.Use(Timeout(conf.RequestTimeout))
		}

		api.Post("/users", h.EnsureUser)

		api.Post("/events", h.CreateEvent)
		api.Route("/events/{id}", func(ev chi.Router) {
			ev.Get("/", h.GetEvent)
			ev.Post("/ticket-types", h.CreateTicketType)
			ev.Get("/ticket-types", h.ListTicketTypes)
			ev.Post("/registrations", h.Register)
			ev.Get("/registrations", h.ListRegistrations)

			ev.Post("/channels", h.CreateChannel)
			ev.Post("/channels/allocate", h.AllocateChannel)
			ev.Get("/channels/stats", h.ChannelStats)
			ev.Get("/payments/review", h.ReviewQueue)

			ev.Get("/checkin/stats", h.CheckinStats)
			ev.Get("/checkins", h.ListCheckins)

			ev.Put("/pin", h.SetPin)
			ev.Get("/pin", h.HasPin)
			ev.Delete("/pin", h.RemovePin)
			ev.Post("/pin/verify", h.VerifyPin)
		})

		api.Route("/registrations/{id}", func(reg chi.Router) {
			reg.Get("/", h.GetRegistration)
			reg.Post("/cancel", h.CancelRegistration)
			reg.Post("/payments", h.StartPayment)
			reg.Get("/payment", h.LatestPayment)
			reg.Post("/ticket", h.ResendTicket)
			reg.Get("/code", h.TicketCode)
			reg.Post("/checkin", h.CheckIn)
		})

		api.Patch("/channels/{id}", h.SetChannelActive)

		api.Get("/payments/{id}", h.GetPayment)
		api.Post("/payments/{id}/proof", h.AttachProof)
		api.Post("/payments/{id}/confirm", h.ConfirmPayment)
		api.Post("/payments/{id}/reject", h.RejectPayment)

		api.Post("/tickets/decode", h.DecodeTicket)
		api.Post("/checkin/scan", h.Scan)
	})

	return r
}
