package dto

import "github.com/tnqbao/gau-3d-forge/entity"

// JobListResponseDTO reports the pending portion of the queue.
type JobListResponseDTO struct {
	Jobs      []*entity.Job `json:"jobs"`
	Total     int           `json:"total"`
	QueueSize int64         `json:"queue_size"`
}

// CancelResponseDTO acknowledges a successful cancellation.
type CancelResponseDTO struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
