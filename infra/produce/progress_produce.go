package produce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tnqbao/gau-3d-forge/entity"
)

const (
	// ProgressChannelPattern matches every per-job progress topic.
	ProgressChannelPattern = "job:*:progress"
)

// ProgressChannel returns the pub/sub topic carrying one job's updates.
func ProgressChannel(jobID string) string {
	return fmt.Sprintf("job:%s:progress", jobID)
}

// JobIDFromChannel extracts the job id from a progress topic name.
func JobIDFromChannel(channel string) string {
	trimmed := strings.TrimPrefix(channel, "job:")
	return strings.TrimSuffix(trimmed, ":progress")
}

// ProgressService publishes job lifecycle messages on per-job Redis pub/sub
// topics. Delivery is best-effort and at-most-once: the job record in the
// store stays the source of truth, subscribers that miss a publish recover
// by reading it directly.
type ProgressService struct {
	client *redis.Client
}

func InitProgressService(client *redis.Client) *ProgressService {
	return &ProgressService{client: client}
}

// Publish stamps the message and sends it to the job's topic.
func (s *ProgressService) Publish(ctx context.Context, jobID string, msg entity.ProgressMessage) error {
	msg.JobID = jobID
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	if err := s.client.Publish(ctx, ProgressChannel(jobID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish progress message: %w", err)
	}
	return nil
}

func (s *ProgressService) PublishStatusUpdate(ctx context.Context, jobID, status string) error {
	return s.Publish(ctx, jobID, entity.ProgressMessage{
		Type:   entity.MessageTypeStatusUpdate,
		Status: status,
	})
}

func (s *ProgressService) PublishProgressUpdate(ctx context.Context, jobID string, progress int, stage string, stageProgress int) error {
	return s.Publish(ctx, jobID, entity.ProgressMessage{
		Type:          entity.MessageTypeProgressUpdate,
		Progress:      &progress,
		Stage:         stage,
		StageProgress: &stageProgress,
		Message:       fmt.Sprintf("Stage: %s (%d%%)", stage, stageProgress),
	})
}

func (s *ProgressService) PublishCompletion(ctx context.Context, jobID string, result *entity.JobResult) error {
	return s.Publish(ctx, jobID, entity.ProgressMessage{
		Type:   entity.MessageTypeCompletion,
		Status: entity.JobStatusCompleted,
		Result: result,
	})
}

func (s *ProgressService) PublishError(ctx context.Context, jobID string, jobErr *entity.JobError) error {
	return s.Publish(ctx, jobID, entity.ProgressMessage{
		Type:  entity.MessageTypeError,
		Error: jobErr,
	})
}

// SubscribeAll opens a pattern subscription over every job's progress topic.
// The caller owns the returned PubSub and must close it.
func (s *ProgressService) SubscribeAll(ctx context.Context) *redis.PubSub {
	return s.client.PSubscribe(ctx, ProgressChannelPattern)
}
