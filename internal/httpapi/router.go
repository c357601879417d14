package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pbx-api/internal/cdr"
	"pbx-api/internal/config"
	"pbx-api/internal/db"
	"pbx-api/internal/queues"
	"pbx-api/internal/telephony"
)

func NewRouter(cfg *config.Config, pool db.Pool, opts ...telephony.Option) http.Handler {
	registry := queues.NewRegistry(pool)
	calls := cdr.NewRepository(pool, cfg.Location())
	tel := telephony.NewService(pool, calls, opts...)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)

	r.Get("/health", HealthHandler(pool))
	r.Get("/version", VersionHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(APIKeyAuth(cfg))

		api.Route("/queues", func(q chi.Router) {
			q.Get("/", ListQueuesHandler(registry))
			q.Post("/", CreateQueueHandler(registry))
			q.Get("/{id}", GetQueueHandler(registry))
			q.Put("/{id}", UpdateQueueHandler(registry))
			q.Delete("/{id}", DeleteQueueHandler(registry))
		})

		api.Get("/extensions", ExtensionsHandler(tel))
		api.Get("/calls", CallsHandler(calls, tel))
		api.Get("/calls/export", CallsExportHandler(calls, tel))
		api.Get("/trunks", TrunksHandler(tel))
		api.Get("/dashboard/stats", DashboardStatsHandler(tel))
		api.Get("/dashboard/advanced", AdvancedDashboardHandler(tel))
		api.Get("/incoming-routes", IncomingRoutesHandler(tel))
		api.Get("/incoming-routes/{number}", IncomingRouteHandler(tel))
		api.Get("/ivrs", IVRsHandler(tel))
	})

	return r
}
