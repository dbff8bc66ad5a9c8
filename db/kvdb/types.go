package kvdb

import (
	"errors"
	"fmt"
	"time"
)

// Buckets created when the store is opened.
const (
	UploadsBucket   = "uploads"
	CrawlsBucket    = "crawls"
	FilesBucket     = "files"
	DocumentsBucket = "documents"
)

// FileMetadata is kept per imported file path.
type FileMetadata struct {
	LastIndexed time.Time `json:"last_indexed"`
	UploadID    string    `json:"upload_id"`
}

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
)

type InvalidKeyError struct {
	Key    string
	Reason string
}
type NotFoundError struct {
	Bucket string
	Key    string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %s: %s", e.Key, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found in %s: %s", e.Bucket, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
