package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/search"
	"github.com/meghashyamc/searchdesk/validation"
)

const genericSearchError = "Something went wrong while searching. Please try again."

type SearchRequest struct {
	Query  string   `form:"q" json:"q" validate:"required,valid_query,min=1,max=1000"`
	Page   int      `form:"page" json:"page" validate:"min=0,max=10000"`
	Facets []string `form:"f" json:"f" validate:"max=20,dive,valid_facet"`
}

type SuggestRequest struct {
	Query string `form:"q" json:"q" validate:"max=200"`
}

type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

type searchPage struct {
	Query    string
	Selected []string
	Results  *search.Results
	Error    string
}

func SetupSearch(router *gin.Engine, logger logger.Logger, searchDB searchdb.DB, options search.Options, validator *validation.Validator) {
	service := search.New(logger, searchDB, options)
	router.GET("/", handleSearchPage(service, logger, validator))
	router.GET("/api/search", handleSearch(service, logger, validator))
	router.GET("/api/suggest", handleSuggest(service, logger, validator))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		results, err := service.Search(c.Request.Context(), search.ParseState(c.Request.URL.Query()))
		if err != nil {
			c.Abort()
			writeResponse(c, nil, searchErrorStatus(err), []string{err.Error()})
			return
		}

		c.Header(HeaderPaginationTotalCount, strconv.Itoa(results.Total))
		writeResponse(c, results, http.StatusOK, nil)
	}
}

// handleSearchPage renders the search page. Without a query it shows only the
// search form.
func handleSearchPage(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		page := searchPage{}

		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search page request", "err", err.Error())
			page.Error = "Invalid search parameters."
			c.HTML(http.StatusUnprocessableEntity, "search.html", page)
			return
		}
		page.Query = request.Query
		page.Selected = request.Facets

		if strings.TrimSpace(request.Query) == "" {
			c.HTML(http.StatusOK, "search.html", page)
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search page request", "err", err.Error())
			page.Error = "Invalid search: " + err.Error()
			c.HTML(http.StatusNotAcceptable, "search.html", page)
			return
		}

		results, err := service.Search(c.Request.Context(), search.ParseState(c.Request.URL.Query()))
		if err != nil {
			page.Error = genericSearchError
			c.HTML(searchErrorStatus(err), "search.html", page)
			return
		}

		page.Results = results
		c.HTML(http.StatusOK, "search.html", page)
	}
}

func handleSuggest(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SuggestRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from suggest request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		suggestions := service.Suggest(c.Request.Context(), request.Query)
		if suggestions == nil {
			suggestions = []string{}
		}

		writeResponse(c, SuggestResponse{Suggestions: suggestions}, http.StatusOK, nil)
	}
}

// searchErrorStatus maps a failed search to a response code. Anything other
// than a rejected query is the engine's fault.
func searchErrorStatus(err error) int {
	if errors.Is(err, search.ErrEmptyQuery) {
		return http.StatusNotAcceptable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
