package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meghashyamc/searchdesk/db/kvdb"
)

// removeStale deletes the engine documents an earlier ingestion of key
// produced that this one did not, and records ids as the documents key now
// owns. It returns how many documents were deleted.
func (s *Service) removeStale(ctx context.Context, uploadID string, key string, ids []string) int {
	previous, err := s.getDocumentIDs(key)
	if err != nil && !errors.Is(err, kvdb.ErrNotFound) {
		s.logger.Warn("failed to get previous document ids", "upload_id", uploadID, "key", key, "err", err.Error())
	}

	current := make(map[string]bool, len(ids))
	for _, id := range ids {
		current[id] = true
	}
	var stale []string
	for _, id := range previous {
		if !current[id] {
			stale = append(stale, id)
		}
	}

	owned := ids
	removed := 0
	if len(stale) > 0 {
		if err := s.indexer.Delete(ctx, stale); err != nil {
			// Keep them recorded so the next ingestion retries
			s.logger.Error("failed to delete stale documents", "upload_id", uploadID, "key", key, "stale", len(stale), "err", err.Error())
			owned = append(append([]string{}, ids...), stale...)
		} else {
			removed = len(stale)
			s.logger.Info("deleted stale documents", "upload_id", uploadID, "key", key, "deleted", removed)
		}
	}

	s.setDocumentIDs(key, owned)
	return removed
}

func (s *Service) setDocumentIDs(key string, ids []string) {
	data, err := json.Marshal(ids)
	if err != nil {
		s.logger.Error("failed to marshal document ids", "key", key, "err", err.Error())
		return
	}
	if err := s.store.Set(kvdb.DocumentsBucket, key, string(data)); err != nil {
		s.logger.Error("failed to set document ids", "key", key, "err", err.Error())
	}
}

func (s *Service) getDocumentIDs(key string) ([]string, error) {
	value, err := s.store.Get(kvdb.DocumentsBucket, key)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(value), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document ids for %s: %w", key, err)
	}

	return ids, nil
}
