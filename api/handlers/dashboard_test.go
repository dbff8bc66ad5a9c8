package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/dashboard", testCase{})
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Contains(recorder.Body.String(), "No benchmark results yet")
	assert.Contains(recorder.Body.String(), "No uploads yet")

	csv := "timestamp,qps\n2024-01-01 10:00:00,12\n2024-01-01 10:00:01,18\n"
	assert.NoError(os.WriteFile(server.benchTo, []byte(csv), 0644))
	uploaded := makeUploadRequest(t, assert, server.router, "tides.txt", "Tidal energy is predictable.", nil)
	assert.Equal(http.StatusOK, uploaded.Code)

	recorder = makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/dashboard", testCase{})
	assert.Equal(http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	assert.Contains(body, "2 samples, peak 18.0 qps, mean 15.0 qps")
	assert.Contains(body, "2024-01-01 10:00:01")
	assert.Contains(body, "tides.txt")
}

func TestDashboardUnreadableResults(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	assert.NoError(os.WriteFile(server.benchTo, []byte("when,rate\n1,2\n"), 0644))

	recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/dashboard", testCase{})
	assert.Equal(http.StatusOK, recorder.Code)
	assert.Contains(recorder.Body.String(), "Benchmark results could not be read.")
}
