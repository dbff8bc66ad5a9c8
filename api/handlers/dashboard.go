package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/bench"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/ingest"
)

const dashboardUploads = 20

type dashboardPage struct {
	Samples []bench.Sample
	Peak    float64
	Mean    float64
	Uploads []*ingest.Status
	Error   string
}

// SetupDashboard serves the benchmark chart and recent uploads. resultsPath is
// the CSV written by the bench command.
func SetupDashboard(router *gin.Engine, logger logger.Logger, service *ingest.Service, resultsPath string) {
	router.GET("/dashboard", handleDashboard(service, logger, resultsPath))
}

func handleDashboard(service *ingest.Service, logger logger.Logger, resultsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := dashboardPage{}

		samples, err := bench.ReadSamples(resultsPath)
		if err != nil {
			logger.Error("could not read benchmark results", "path", resultsPath, "err", err.Error())
			page.Error = "Benchmark results could not be read."
		}
		summary := bench.Summarize(samples)
		page.Samples = samples
		page.Peak = summary.Peak
		page.Mean = summary.Mean

		uploads, err := service.ListStatuses()
		if err != nil {
			logger.Error("could not list uploads", "err", err.Error())
		}
		if len(uploads) > dashboardUploads {
			uploads = uploads[:dashboardUploads]
		}
		page.Uploads = uploads

		c.HTML(http.StatusOK, "dashboard.html", page)
	}
}
