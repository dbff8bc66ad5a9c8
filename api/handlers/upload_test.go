package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/stretchr/testify/require"
)

func TestUpload(t *testing.T) {
	testCases := []struct {
		name           string
		fileName       string
		content        string
		fields         map[string]string
		expectedStatus int
		expectedErrors []string
		checkFn        func(assert *require.Assertions, status *ingest.Status)
	}{
		{
			name:           "no file",
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{"please select a file to upload"},
		},
		{
			name:           "unknown mode",
			fileName:       "a.txt",
			content:        "text",
			fields:         map[string]string{"mode": "pages"},
			expectedStatus: http.StatusNotAcceptable,
			expectedErrors: []string{"invalid upload mode"},
		},
		{
			name:           "empty file",
			fileName:       "empty.txt",
			expectedStatus: http.StatusBadRequest,
			expectedErrors: []string{"please select a file to upload"},
			checkFn: func(assert *require.Assertions, status *ingest.Status) {
				assert.Equal(ingest.StateFailed, status.State)
			},
		},
		{
			name:           "file too large",
			fileName:       "big.txt",
			content:        strings.Repeat("x", 2048),
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedErrors: []string{"file is too large"},
			checkFn: func(assert *require.Assertions, status *ingest.Status) {
				assert.Equal(ingest.StateFailed, status.State)
			},
		},
		{
			name:           "paragraphs",
			fileName:       "wind.txt",
			content:        "Wind turbines spin slowly.\n\nBatteries store the charge.",
			fields:         map[string]string{"category": "notes"},
			expectedStatus: http.StatusOK,
			checkFn: func(assert *require.Assertions, status *ingest.Status) {
				assert.Equal(ingest.StateDone, status.State)
				assert.Equal(ingest.ModeParagraphs, status.Mode)
				assert.Equal(2, status.Paragraphs)
				assert.Equal(2, status.Indexed)
				assert.Zero(status.Failed)
			},
		},
		{
			name:           "whole document",
			fileName:       "wind.txt",
			content:        "Wind turbines spin slowly.\n\nBatteries store the charge.",
			fields:         map[string]string{"mode": "document"},
			expectedStatus: http.StatusOK,
			checkFn: func(assert *require.Assertions, status *ingest.Status) {
				assert.Equal(ingest.StateDone, status.State)
				assert.Equal(ingest.ModeDocument, status.Mode)
				assert.Equal(1, status.Indexed)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			server := setupTestServer(t, assert)

			recorder := makeUploadRequest(t, assert, server.router, tc.fileName, tc.content, tc.fields)
			assert.Equal(tc.expectedStatus, recorder.Code, recorder.Body.String())

			status, errors := decodeResponse[*ingest.Status](assert, recorder)
			assert.Equal(tc.expectedErrors, errors)
			if tc.checkFn != nil {
				assert.NotNil(status)
				tc.checkFn(assert, status)
			}
		})
	}
}

func TestUploadIsSearchable(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeUploadRequest(t, assert, server.router, "wind.txt", "Wind turbines spin slowly.\n\nBatteries store the charge.", nil)
	assert.Equal(http.StatusOK, recorder.Code)

	recorder = makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/search", testCase{
		queryParams: url.Values{"q": {"turbines"}},
	})
	assert.Equal(http.StatusOK, recorder.Code)

	results, _ := decodeResponse[searchTestResults](assert, recorder)
	assert.Equal(1, results.Total)
	assert.Equal("wind.txt_1", results.Hits[0].ID)
}

func TestUploadStatus(t *testing.T) {
	assert := require.New(t)
	server := setupTestServer(t, assert)

	recorder := makeUploadRequest(t, assert, server.router, "wind.txt", "Wind turbines spin slowly.", nil)
	assert.Equal(http.StatusOK, recorder.Code)
	uploaded, _ := decodeResponse[*ingest.Status](assert, recorder)

	testCases := []struct {
		name           string
		id             string
		expectedStatus int
		expectedErrors []string
	}{
		{name: "known upload", id: uploaded.ID, expectedStatus: http.StatusOK},
		{name: "unknown upload", id: uuid.New().String(), expectedStatus: http.StatusNotFound, expectedErrors: []string{"upload not found"}},
		{name: "malformed id", id: "abc", expectedStatus: http.StatusNotAcceptable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			recorder := makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/uploads/"+tc.id, testCase{})
			assert.Equal(tc.expectedStatus, recorder.Code)

			status, errors := decodeResponse[*ingest.Status](assert, recorder)
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(uploaded.ID, status.ID)
				assert.Equal(ingest.StateDone, status.State)
				return
			}
			assert.NotEmpty(errors)
			if tc.expectedErrors != nil {
				assert.Equal(tc.expectedErrors, errors)
			}
		})
	}

	recorder = makeTestHTTPRequest(t, assert, server.router, http.MethodGet, "/api/uploads", testCase{})
	assert.Equal(http.StatusOK, recorder.Code)
	statuses, _ := decodeResponse[[]*ingest.Status](assert, recorder)
	assert.Len(statuses, 1)
	assert.Equal("wind.txt", statuses[0].FileName)
}
