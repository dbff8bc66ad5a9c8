package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/api/handlers"
	"github.com/meghashyamc/searchdesk/config"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/metrics"
	"github.com/meghashyamc/searchdesk/services/crawl"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/meghashyamc/searchdesk/services/search"
	"github.com/meghashyamc/searchdesk/ui"
	"github.com/meghashyamc/searchdesk/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(router *gin.Engine, cfg *config.Config, logger logger.Logger, searchDB searchdb.DB, ingestService *ingest.Service, crawlService *crawl.Service, validator *validation.Validator) {
	router.GET("/health", health())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.StaticFS("/ui", http.FS(ui.Static))

	handlers.SetupSearch(router, logger, searchDB, search.OptionsFromConfig(cfg), validator)
	handlers.SetupUpload(router, logger, ingestService, validator)
	handlers.SetupCrawl(router, logger, crawlService, validator)
	handlers.SetupImport(router, logger, ingestService, validator)
	handlers.SetupDashboard(router, logger, ingestService, cfg.GetBenchResultsPath())
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

func newRouter(cfg *config.Config) (*gin.Engine, error) {
	templates, err := ui.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.Default()
	router.UseRawPath = true
	router.SetHTMLTemplate(templates)
	router.Use(corsMiddleware(cfg.GetCORSOrigins()))
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	return router, nil
}
