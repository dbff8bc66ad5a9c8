package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPDF(t *testing.T) {
	testCases := []struct {
		name        string
		fileName    string
		contentType string
		content     []byte
		expected    bool
	}{
		{name: "content type", fileName: "upload", contentType: "application/pdf", content: []byte("x"), expected: true},
		{name: "extension", fileName: "Guide.PDF", contentType: "application/octet-stream", content: []byte("x"), expected: true},
		{name: "magic header", fileName: "upload.bin", content: []byte("%PDF-1.7\n..."), expected: true},
		{name: "plain text", fileName: "notes.txt", contentType: "text/plain", content: []byte("hello"), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, isPDF(tc.fileName, tc.contentType, tc.content))
		})
	}
}

func TestPDFExtractorRejectsGarbage(t *testing.T) {
	_, err := NewPDFExtractor().ExtractPages(context.Background(), []byte("%PDF-1.4\nthis is not really a pdf"))
	require.Error(t, err)
}
