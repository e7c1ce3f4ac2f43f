package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tnqbao/gau-3d-forge/entity"
)

// ErrStoreUnavailable marks a failure to reach the underlying store. It is
// distinct from a missing record: callers must never treat it as "absent".
var ErrStoreUnavailable = errors.New("job store unavailable")

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// cancelScript atomically checks that a job is non-terminal and marks it
// cancelled. Returns 1 when the transition happened, 0 otherwise.
var cancelScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
	return 0
end
if status == 'completed' or status == 'failed' or status == 'cancelled' then
	return 0
end
redis.call('HSET', KEYS[1], 'status', 'cancelled', 'completed_at', ARGV[1])
return 1
`)

// JobRepository is the Job Store and Queue: one Redis hash per job under
// job:{id} with a retention TTL, and a pending-ids list consumed with BLPOP.
type JobRepository struct {
	client    *redis.Client
	queueName string
	retention time.Duration
}

func NewJobRepository(client *redis.Client, queueName string, retentionHours int) *JobRepository {
	return &JobRepository{
		client:    client,
		queueName: queueName,
		retention: time.Duration(retentionHours) * time.Hour,
	}
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

// Enqueue allocates a fresh id, writes the initial record, appends the id
// to the pending list and arms the retention TTL. The record write happens
// in a single HSET so readers either miss the key or see it complete.
func (r *JobRepository) Enqueue(ctx context.Context, jobType string, input *entity.JobInput, params *entity.JobParameters) (string, error) {
	jobID := uuid.New().String()

	inputField := ""
	if input != nil {
		inputField = marshalField(input)
	}
	paramsField := ""
	if params != nil {
		paramsField = marshalField(params)
	}

	fields := map[string]interface{}{
		"job_id":         jobID,
		"job_type":       jobType,
		"status":         entity.JobStatusQueued,
		"input_data":     inputField,
		"parameters":     paramsField,
		"created_at":     time.Now().UTC().Format(time.RFC3339Nano),
		"started_at":     "",
		"completed_at":   "",
		"result":         "",
		"error":          "",
		"progress":       "0",
		"stage":          "queued",
		"stage_progress": "0",
	}

	if err := r.client.HSet(ctx, jobKey(jobID), fields).Err(); err != nil {
		return "", storeErr(err)
	}
	if err := r.client.RPush(ctx, r.queueName, jobID).Err(); err != nil {
		return "", storeErr(err)
	}
	if err := r.client.Expire(ctx, jobKey(jobID), r.retention).Err(); err != nil {
		return "", storeErr(err)
	}

	return jobID, nil
}

// Get reads and deserializes the full record. A missing or expired job
// returns (nil, nil); that is a valid empty result, not an error.
func (r *JobRepository) Get(ctx context.Context, jobID string) (*entity.Job, error) {
	fields, err := r.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, storeErr(err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	job := &entity.Job{
		JobID:       fields["job_id"],
		JobType:     fields["job_type"],
		Status:      fields["status"],
		CreatedAt:   fields["created_at"],
		StartedAt:   fields["started_at"],
		CompletedAt: fields["completed_at"],
		Stage:       fields["stage"],
	}
	job.Progress, _ = strconv.Atoi(fields["progress"])
	job.StageProgress, _ = strconv.Atoi(fields["stage_progress"])

	if raw := fields["input_data"]; raw != "" {
		job.InputData = &entity.JobInput{}
		_ = json.Unmarshal([]byte(raw), job.InputData)
	}
	if raw := fields["parameters"]; raw != "" {
		job.Parameters = &entity.JobParameters{}
		_ = json.Unmarshal([]byte(raw), job.Parameters)
	}
	if raw := fields["result"]; raw != "" {
		job.Result = &entity.JobResult{}
		_ = json.Unmarshal([]byte(raw), job.Result)
	}
	if raw := fields["error"]; raw != "" {
		job.Error = &entity.JobError{}
		_ = json.Unmarshal([]byte(raw), job.Error)
	}

	return job, nil
}

// JobUpdate carries a partial record update. Nil fields are left untouched
// in the stored hash, so concurrent updates to disjoint fields never lose
// each other's writes.
type JobUpdate struct {
	Status        *string
	StartedAt     *string
	CompletedAt   *string
	Progress      *int
	Stage         *string
	StageProgress *int
	InputData     *entity.JobInput
	Result        *entity.JobResult
	Error         *entity.JobError
}

// Update merges the set fields into the existing record via HSET.
func (r *JobRepository) Update(ctx context.Context, jobID string, update JobUpdate) error {
	fields := map[string]interface{}{}

	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.StartedAt != nil {
		fields["started_at"] = *update.StartedAt
	}
	if update.CompletedAt != nil {
		fields["completed_at"] = *update.CompletedAt
	}
	if update.Progress != nil {
		fields["progress"] = strconv.Itoa(*update.Progress)
	}
	if update.Stage != nil {
		fields["stage"] = *update.Stage
	}
	if update.StageProgress != nil {
		fields["stage_progress"] = strconv.Itoa(*update.StageProgress)
	}
	if update.InputData != nil {
		fields["input_data"] = marshalField(update.InputData)
	}
	if update.Result != nil {
		fields["result"] = marshalField(update.Result)
	}
	if update.Error != nil {
		fields["error"] = marshalField(update.Error)
	}

	if len(fields) == 0 {
		return nil
	}

	if err := r.client.HSet(ctx, jobKey(jobID), fields).Err(); err != nil {
		return storeErr(err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next pending id. It returns ""
// without error when the wait times out; that is a normal idle tick.
func (r *JobRepository) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := r.client.BLPop(ctx, timeout, r.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", storeErr(err)
	}
	// BLPOP returns [queue name, value].
	return res[1], nil
}

// Size returns the number of pending ids.
func (r *JobRepository) Size(ctx context.Context) (int64, error) {
	n, err := r.client.LLen(ctx, r.queueName).Result()
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// PeekPending returns up to limit pending ids without removing them.
func (r *JobRepository) PeekPending(ctx context.Context, limit int64) ([]string, error) {
	ids, err := r.client.LRange(ctx, r.queueName, 0, limit-1).Result()
	if err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

// Cancel atomically marks a non-terminal job cancelled and removes it from
// the pending list. Returns false when the job is absent or already
// terminal; that is a no-op, not an error. A job already claimed by the
// worker is only marked: the in-flight run is not preempted.
func (r *JobRepository) Cancel(ctx context.Context, jobID string) (bool, error) {
	completedAt := time.Now().UTC().Format(time.RFC3339Nano)

	n, err := cancelScript.Run(ctx, r.client, []string{jobKey(jobID)}, completedAt).Int()
	if err != nil {
		return false, storeErr(err)
	}
	if n == 0 {
		return false, nil
	}

	if err := r.client.LRem(ctx, r.queueName, 0, jobID).Err(); err != nil {
		return false, storeErr(err)
	}
	return true, nil
}

func marshalField(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
