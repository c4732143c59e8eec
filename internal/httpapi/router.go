package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/catalog"
	"github.com/veslo-ai/textlab/internal/common"
	"github.com/veslo-ai/textlab/internal/config"
	"github.com/veslo-ai/textlab/internal/httpapi/handlers"
	"github.com/veslo-ai/textlab/internal/httpapi/middleware"
	"github.com/veslo-ai/textlab/internal/store/rabbitmq"
	"github.com/veslo-ai/textlab/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, cat *catalog.Catalog, rds *redisstore.Store, rabbit *rabbitmq.Publisher, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, cat, rds, rabbit, log)

	r.GET("/ping", h.Ping)

	v1 := r.Group("/v1")

	// catalogs are public
	v1.GET("/types", h.ListTypes)
	v1.GET("/models", h.ListModels)

	// owner administration
	v1.POST("/users", h.CreateOwner)
	v1.GET("/users", h.ListOwners)
	v1.GET("/users/:user_id", h.GetOwner)
	v1.DELETE("/users/:user_id", h.DeleteOwner)

	// everything below is scoped to the caller identity
	scoped := v1.Group("/")
	scoped.Use(middleware.Identity(cfg.Debug))
	var limiter middleware.Limiter
	if rds != nil {
		// a typed nil would slip past the middleware's nil check
		limiter = rds
	}
	scoped.Use(middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow))

	scoped.POST("/sessions", h.CreateSession)
	scoped.GET("/sessions", h.ListSessions)
	scoped.GET("/sessions/search", h.SearchSessions)
	scoped.GET("/sessions/:session_id", h.GetSession)
	scoped.PATCH("/sessions/:session_id", h.UpdateSession)
	scoped.DELETE("/sessions/:session_id", h.DeleteSession)
	scoped.GET("/sessions/:session_id/export", h.ExportSession)

	scoped.POST("/jobs", h.CreateAnalysisJob)
	scoped.GET("/jobs/:job_id", h.GetAnalysisJob)

	scoped.POST("/documents/extract", h.ExtractDocument)

	scoped.POST("/translations", h.CreateTranslation)
	scoped.GET("/translations", h.ListTranslations)
	scoped.GET("/translations/search", h.SearchTranslations)
	scoped.GET("/translations/:session_id", h.GetTranslation)
	scoped.POST("/translations/:session_id/retranslate", h.Retranslate)
	scoped.GET("/translations/:session_id/export", h.ExportTranslation)
	scoped.PATCH("/translations/:session_id", h.RenameTranslation)
	scoped.DELETE("/translations/:session_id", h.DeleteTranslation)

	return r
}
