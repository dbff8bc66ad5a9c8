package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/meghashyamc/searchdesk/validation"
)

type ImportRequest struct {
	Path           string   `json:"path" validate:"required,valid_path"`
	ExcludeFolders []string `json:"exclude_folders" validate:"max=100,dive,valid_path"`
}

// SetupImport exposes importing a directory on the server's own filesystem.
func SetupImport(router *gin.Engine, logger logger.Logger, service *ingest.Service, validator *validation.Validator) {
	router.POST("/api/import", handleImport(service, logger, validator))
}

func handleImport(service *ingest.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := ImportRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from import request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate import request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, err := service.ImportDirectory(c.Request.Context(), request.Path, request.ExcludeFolders)
		if err != nil {
			c.Abort()
			writeResponse(c, result, http.StatusInternalServerError, []string{err.Error()})
			return
		}

		writeResponse(c, result, http.StatusOK, nil)
	}
}
