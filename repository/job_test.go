package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-3d-forge/entity"
)

func newTestRepo(t *testing.T) (*JobRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewJobRepository(client, "forge_jobs_test", 24), mr
}

func TestEnqueueCreatesQueuedJob(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	input := &entity.JobInput{Type: "text", Prompt: "a red chair"}
	params := &entity.JobParameters{Resolution: "medium"}

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, input, params)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, jobID, job.JobID)
	assert.Equal(t, entity.JobTypeTextTo3D, job.JobType)
	assert.Equal(t, entity.JobStatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "queued", job.Stage)
	assert.NotEmpty(t, job.CreatedAt)
	assert.Empty(t, job.StartedAt)
	assert.Empty(t, job.CompletedAt)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.Error)

	require.NotNil(t, job.InputData)
	assert.Equal(t, "a red chair", job.InputData.Prompt)
	require.NotNil(t, job.Parameters)
	assert.Equal(t, "medium", job.Parameters.Resolution)

	size, err := repo.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestEnqueueAssignsUniqueIDs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
		require.NoError(t, err)
		assert.False(t, seen[jobID], "duplicate job id %s", jobID)
		seen[jobID] = true
	}
}

func TestEnqueueArmsRetentionTTL(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
	require.NoError(t, err)

	ttl := mr.TTL("job:" + jobID)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestEnqueueWithoutParameters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
	require.NoError(t, err)

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Nil(t, job.Parameters)
}

func TestGetMissingJobReturnsNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	job, err := repo.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestUpdateMergesDisjointFields(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "a red chair"}, nil)
	require.NoError(t, err)

	status := entity.JobStatusProcessing
	started := time.Now().UTC().Format(time.RFC3339Nano)
	require.NoError(t, repo.Update(ctx, jobID, JobUpdate{Status: &status, StartedAt: &started}))

	progress := 30
	stage := "generating_sparse_structure"
	stageProgress := 0
	require.NoError(t, repo.Update(ctx, jobID, JobUpdate{Progress: &progress, Stage: &stage, StageProgress: &stageProgress}))

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)

	// The second update must not clobber fields set by the first.
	assert.Equal(t, entity.JobStatusProcessing, job.Status)
	assert.Equal(t, started, job.StartedAt)
	assert.Equal(t, 30, job.Progress)
	assert.Equal(t, "generating_sparse_structure", job.Stage)
	require.NotNil(t, job.InputData)
	assert.Equal(t, "a red chair", job.InputData.Prompt)
}

func TestUpdateStoresResultAndError(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
	require.NoError(t, err)

	result := &entity.JobResult{
		GLBURL:    "/api/v1/download/" + jobID + ".glb",
		FileSizes: map[string]int64{"glb": 1024},
	}
	require.NoError(t, repo.Update(ctx, jobID, JobUpdate{Result: result}))

	jobErr := &entity.JobError{Code: "PROCESSING_ERROR", Message: "boom", Recoverable: false}
	require.NoError(t, repo.Update(ctx, jobID, JobUpdate{Error: jobErr}))

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job.Result)
	assert.Equal(t, result.GLBURL, job.Result.GLBURL)
	assert.Equal(t, int64(1024), job.Result.FileSizes["glb"])
	require.NotNil(t, job.Error)
	assert.Equal(t, "PROCESSING_ERROR", job.Error.Code)
	assert.False(t, job.Error.Recoverable)
}

func TestDequeueReturnsOldestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "a"}, nil)
	require.NoError(t, err)
	second, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "b"}, nil)
	require.NoError(t, err)

	got, err := repo.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = repo.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	size, err := repo.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestDequeueTimeoutIsIdleTick(t *testing.T) {
	repo, _ := newTestRepo(t)

	start := time.Now()
	got, err := repo.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestPeekPendingDoesNotConsume(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
		require.NoError(t, err)
		ids = append(ids, jobID)
	}

	peeked, err := repo.PeekPending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, ids[:2], peeked)

	size, err := repo.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestCancelQueuedJob(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
	require.NoError(t, err)

	ok, err := repo.Cancel(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, ok)

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, entity.JobStatusCancelled, job.Status)
	assert.NotEmpty(t, job.CompletedAt)

	// The pending entry must be gone so the worker never claims it.
	size, err := repo.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestCancelTerminalJobIsNoop(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	jobID, err := repo.Enqueue(ctx, entity.JobTypeTextTo3D, &entity.JobInput{Prompt: "x"}, nil)
	require.NoError(t, err)

	status := entity.JobStatusCompleted
	completed := time.Now().UTC().Format(time.RFC3339Nano)
	require.NoError(t, repo.Update(ctx, jobID, JobUpdate{Status: &status, CompletedAt: &completed}))

	ok, err := repo.Cancel(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, ok)

	job, err := repo.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, completed, job.CompletedAt)
}

func TestCancelMissingJob(t *testing.T) {
	repo, _ := newTestRepo(t)

	ok, err := repo.Cancel(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}
