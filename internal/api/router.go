package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"kiosk-sections-backend/config"
	"kiosk-sections-backend/internal/metrics"
	"kiosk-sections-backend/internal/mw"
	"kiosk-sections-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. m may be nil, in which
// case no request metrics are recorded and /metrics is not served.
func NewRouter(s store.Store, cfg *config.Config, m *metrics.HTTPMetrics) *gin.Engine {
	r := gin.New()

	handler := NewHandler(s)

	r.Use(mw.RequestID(), mw.CORS(), mw.AccessLog())
	if m != nil {
		r.Use(m.Middleware())
	}
	r.Use(mw.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})

	handle(r, http.MethodGet, "/healthz", handler.Health)
	if m != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// API group
	api := r.Group("/api")
	api.Use(mw.RateLimiter(
		rate.Limit(cfg.Server.RateLimitPerSec),
		cfg.Server.RateLimitBurst,
		cfg.Server.RateLimitIdleTTL(),
	))
	{
		handle(api, http.MethodPost, "/sections/create", handler.CreateSection)
		handle(api, http.MethodGet, "/sections/list", handler.ListSections)
		handle(api, http.MethodGet, "/sections/get/:id", handler.GetSection)
		handle(api, http.MethodPut, "/sections/update/:id", handler.UpdateSection)
		handle(api, http.MethodDelete, "/sections/delete/:id", handler.DeleteSection)

		handle(api, http.MethodPost, "/machines/create", handler.CreateMachine)
		handle(api, http.MethodGet, "/machines/list", handler.ListMachines)
		handle(api, http.MethodGet, "/machines/get/:id", handler.GetMachine)
		handle(api, http.MethodGet, "/machines/by_section/:section_id", handler.MachinesBySection)
		handle(api, http.MethodPut, "/machines/update/:id", handler.UpdateMachine)
		handle(api, http.MethodDelete, "/machines/delete/:id", handler.DeleteMachine)
	}

	return r
}

// handle registers h for method on path, together with an OPTIONS route
// answering preflight requests with an empty 200.
func handle(g gin.IRoutes, method, path string, h gin.HandlerFunc) {
	g.Handle(method, path, h)
	g.OPTIONS(path, preflight)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
