package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"inventory-ledger/internal/handler/api"
	"inventory-ledger/internal/handler/middleware"
	"inventory-ledger/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	logger *middleware.Logger,
	gatherer prometheus.Gatherer,
	stockHandler *api.StockHandler,
	reservationHandler *api.ReservationHandler,
	catalogHandler *api.CatalogHandler,
	outboxHandler *api.OutboxHandler,
) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, gatherer, stockHandler, reservationHandler, catalogHandler, outboxHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	gatherer prometheus.Gatherer,
	stockHandler *api.StockHandler,
	reservationHandler *api.ReservationHandler,
	catalogHandler *api.CatalogHandler,
	outboxHandler *api.OutboxHandler,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		reservations := apiGroup.Group("/reservations")
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.Reserve},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.Get},
				{Method: http.MethodPost, Path: "/:id/release", Handler: reservationHandler.Release},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: reservationHandler.Confirm},
				{Method: http.MethodGet, Path: "/:id/history", Handler: reservationHandler.History},
			})
		}

		stock := apiGroup.Group("/stock/:warehouseId/:itemId")
		{
			addRoutes(stock, []route{
				{Method: http.MethodGet, Path: "", Handler: stockHandler.Get},
				{Method: http.MethodPost, Path: "/adjustments", Handler: stockHandler.Adjust},
				{Method: http.MethodPost, Path: "/reconcile", Handler: stockHandler.Reconcile},
				{Method: http.MethodGet, Path: "/history", Handler: stockHandler.History},
			})
		}

		addRoutes(apiGroup.Group("/catalog"), []route{
			{Method: http.MethodPost, Path: "/notifications", Handler: catalogHandler.Notify},
		})

		addRoutes(apiGroup.Group("/outbox"), []route{
			{Method: http.MethodGet, Path: "/dead", Handler: outboxHandler.ListDead},
			{Method: http.MethodPost, Path: "/:id/requeue", Handler: outboxHandler.Requeue},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
