package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	router := newTestRouter()

	testCases := []struct {
		name           string
		path           string
		expectedPath   string
		expectedStatus string
	}{
		{name: "ok", path: "/ok", expectedPath: "/ok", expectedStatus: "200"},
		{name: "route pattern", path: "/items/42", expectedPath: "/items/:id", expectedStatus: "404"},
		{name: "server error", path: "/error", expectedPath: "/error", expectedStatus: "500"},
		{name: "unmatched route", path: "/nowhere", expectedPath: "unknown", expectedStatus: "404"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, tc.expectedPath, tc.expectedStatus))

			req := httptest.NewRequest(http.MethodGet, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, tc.expectedPath, tc.expectedStatus))
			require.Equal(t, before+1, after)
		})
	}

	require.Positive(t, testutil.CollectAndCount(httpRequestDuration))
}
