package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/db/kvdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/crawl"
	"github.com/meghashyamc/searchdesk/validation"
)

type CrawlRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required,url"`
}

type CrawlResultRequest struct {
	ID string `uri:"id" json:"id" validate:"required,uuid4"`
}

func SetupCrawl(router *gin.Engine, logger logger.Logger, service *crawl.Service, validator *validation.Validator) {
	router.POST("/api/crawl", handleCrawl(service, logger, validator))
	router.GET("/api/crawls/:id", handleGetCrawl(service, logger, validator))
}

func handleCrawl(service *crawl.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := CrawlRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from crawl request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if len(request.URLs) == 0 {
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{crawl.ErrNoURLs.Error()})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate crawl request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, err := service.Crawl(c.Request.Context(), request.URLs)
		if err != nil {
			logger.Warn("could not crawl", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{err.Error()})
			return
		}

		writeResponse(c, result, http.StatusOK, nil)
	}
}

func handleGetCrawl(service *crawl.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := CrawlResultRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request path parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		result, err := service.GetResult(request.ID)
		if err != nil {
			if errors.Is(err, kvdb.ErrNotFound) {
				c.Abort()
				writeResponse(c, nil, http.StatusNotFound, []string{"crawl not found"})
				return
			}
			logger.Error("could not get crawl result", "crawl_id", request.ID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"could not get crawl result"})
			return
		}

		writeResponse(c, result, http.StatusOK, nil)
	}
}
