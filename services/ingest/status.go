package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/meghashyamc/searchdesk/db/kvdb"
)

type State string

const (
	StateIdle       State = "idle"
	StateReading    State = "reading"
	StateExtracting State = "extracting"
	StateSegmenting State = "segmenting"
	StateSubmitting State = "submitting"
	StateCommitting State = "committing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Status is the recorded progress of one upload.
type Status struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Mode       Mode      `json:"mode"`
	State      State     `json:"state"`
	Paragraphs int       `json:"paragraphs"`
	Indexed    int       `json:"indexed"`
	Failed     int       `json:"failed"`
	Removed    int       `json:"removed"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StatusStore interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	GetAllKeys(bucket string) ([]string, error)
}

func (s *Service) setStatus(status *Status, state State) {
	status.State = state
	status.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("failed to marshal upload status", "upload_id", status.ID, "err", err.Error())
		return
	}

	if err := s.store.Set(kvdb.UploadsBucket, status.ID, string(data)); err != nil {
		s.logger.Error("failed to update upload status", "upload_id", status.ID, "state", string(state), "err", err.Error())
	}
}

// GetStatus retrieves the recorded status of an upload.
func (s *Service) GetStatus(id string) (*Status, error) {
	value, err := s.store.Get(kvdb.UploadsBucket, id)
	if err != nil {
		return nil, fmt.Errorf("upload not found: %w", err)
	}

	var status Status
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		s.logger.Error("failed to unmarshal upload status", "upload_id", id, "err", err.Error())
		return nil, fmt.Errorf("invalid status for upload %s: %w", id, err)
	}

	return &status, nil
}

// ListStatuses returns every recorded upload, most recently updated first.
func (s *Service) ListStatuses() ([]*Status, error) {
	ids, err := s.store.GetAllKeys(kvdb.UploadsBucket)
	if err != nil {
		return nil, err
	}

	statuses := make([]*Status, 0, len(ids))
	for _, id := range ids {
		status, err := s.GetStatus(id)
		if err != nil {
			continue
		}
		statuses = append(statuses, status)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].UpdatedAt.After(statuses[j].UpdatedAt)
	})

	return statuses, nil
}
