// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/db/kvdb"
	"github.com/meghashyamc/searchdesk/db/searchdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/crawl"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/meghashyamc/searchdesk/services/search"
	"github.com/meghashyamc/searchdesk/ui"
	"github.com/meghashyamc/searchdesk/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

var testDocuments = []searchdb.Document{
	{ID: "guide.pdf_p1_1", Title: "guide.pdf", FileName: "guide.pdf", Page: 1, Paragraph: 1, Category: []string{"manual"}, Content: "Mount the solar panel facing south."},
	{ID: "guide.pdf_p2_1", Title: "guide.pdf", FileName: "guide.pdf", Page: 2, Paragraph: 1, Category: []string{"manual"}, Content: "Clean the solar panel twice a year."},
	{ID: "notes.txt_1", Title: "notes.txt", FileName: "notes.txt", Paragraph: 1, Category: []string{"notes"}, Tags: []string{"energy"}, Content: "Solar output peaks at noon."},
}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	queryParams      url.Values
	expectedStatus   int
	expectedResponse *response
}

type testServer struct {
	router  *gin.Engine
	ingest  *ingest.Service
	crawl   *crawl.Service
	benchTo string
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {
	t.Helper()

	testLogger := logger.Nop()
	tempDir := t.TempDir()

	searchDB, err := searchdb.NewBleveInMemory(testLogger)
	assert.NoError(err, "could not create search database")
	t.Cleanup(func() { searchDB.Close() })
	assert.NoError(searchDB.AddBatch(context.Background(), testDocuments), "could not index test documents")

	kvDB, err := kvdb.Open(testLogger, filepath.Join(tempDir, "status.db"))
	assert.NoError(err, "could not create kv database")
	t.Cleanup(func() { kvDB.Close() })

	validator, err := validation.New(testLogger, search.DefaultOptions())
	assert.NoError(err, "could not create validator")

	templates, err := ui.Templates()
	assert.NoError(err, "could not parse templates")

	ingestService := ingest.New(testLogger, searchDB, kvDB, ingest.NewPDFExtractor(), ingest.Options{
		SegmentParagraphs: true,
		MaxParallel:       4,
		MaxUploadBytes:    1024,
	})
	crawlService := crawl.New(testLogger, ingestService, kvDB, crawl.Options{RequestsPerSecond: 100, Timeout: 5 * time.Second})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(templates)

	benchResults := filepath.Join(tempDir, "qps_results.csv")
	SetupSearch(router, testLogger, searchDB, search.DefaultOptions(), validator)
	SetupUpload(router, testLogger, ingestService, validator)
	SetupCrawl(router, testLogger, crawlService, validator)
	SetupImport(router, testLogger, ingestService, validator)
	SetupDashboard(router, testLogger, ingestService, benchResults)

	return &testServer{router: router, ingest: ingestService, crawl: crawlService, benchTo: benchResults}
}

func makeTestHTTPRequest(t *testing.T, assert *require.Assertions, router *gin.Engine, method string, path string, tc testCase) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if tc.requestBody != nil {
		assert.NoError(json.NewEncoder(&body).Encode(tc.requestBody))
	}

	target := path
	if len(tc.queryParams) > 0 {
		target += "?" + tc.queryParams.Encode()
	}

	req, err := http.NewRequest(method, target, &body)
	assert.NoError(err)
	for key, value := range tc.requestHeaders {
		req.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// makeUploadRequest posts content as a multipart file upload. An empty
// fileName sends the form without a file part.
func makeUploadRequest(t *testing.T, assert *require.Assertions, router *gin.Engine, fileName string, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		assert.NoError(writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile(formFileField, fileName)
		assert.NoError(err)
		_, err = part.Write([]byte(content))
		assert.NoError(err)
	}
	assert.NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &body)
	assert.NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse[T any](assert *require.Assertions, recorder *httptest.ResponseRecorder) (T, []string) {
	var decoded struct {
		Data   T        `json:"data"`
		Errors []string `json:"errors"`
	}
	assert.NoError(json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return decoded.Data, decoded.Errors
}
