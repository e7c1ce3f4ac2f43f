package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/tnqbao/gau-3d-forge/config"
	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/infra/produce"
	"github.com/tnqbao/gau-3d-forge/pipeline"
	"github.com/tnqbao/gau-3d-forge/provider"
	"github.com/tnqbao/gau-3d-forge/repository"
)

// UploadStore is the slice of object storage the worker reads input
// images from.
type UploadStore interface {
	GetUpload(ctx context.Context, filename string) ([]byte, bool, error)
}

// GenerationConsumer is the single GPU worker: it blocks on the pending
// queue and drives one job at a time through enhancement, generation and
// export. Jobs are strictly sequential; the generation hardware is
// resource-exclusive.
type GenerationConsumer struct {
	cfg        *config.EnvConfig
	logger     *infra.LoggerClient
	repository *repository.Repository
	progress   *produce.ProgressService
	uploads    UploadStore
	providers  *provider.Provider
	engine     pipeline.Engine
}

func NewGenerationConsumer(cfg *config.EnvConfig, infra *infra.Infra, repo *repository.Repository, providers *provider.Provider, engine pipeline.Engine) *GenerationConsumer {
	return &GenerationConsumer{
		cfg:        cfg,
		logger:     infra.Logger,
		repository: repo,
		progress:   infra.Produce.ProgressService,
		uploads:    infra.Minio,
		providers:  providers,
		engine:     engine,
	}
}

func (c *GenerationConsumer) Start(ctx context.Context) error {
	c.logger.InfoWithContextf(ctx, "[Generation Consumer] Started listening on queue: %s", c.cfg.Worker.QueueName)

	go c.run(ctx)

	return nil
}

func (c *GenerationConsumer) run(ctx context.Context) {
	timeout := time.Duration(c.cfg.Worker.DequeueTimeout) * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoWithContextf(ctx, "[Generation Consumer] Shutting down...")
			return
		default:
		}

		jobID, err := c.repository.JobRepo.Dequeue(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Store unavailability must not kill the worker; back off
			// and retry the loop.
			c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if jobID == "" {
			// Idle tick.
			continue
		}

		c.ProcessJob(ctx, jobID)
	}
}

// ProcessJob drives one claimed job through the state machine. A failure
// inside a job is recorded on the job, never propagated to the loop.
func (c *GenerationConsumer) ProcessJob(ctx context.Context, jobID string) {
	repo := c.repository.JobRepo

	job, err := repo.Get(ctx, jobID)
	if err != nil {
		c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to load job %s", jobID)
		return
	}
	if job == nil {
		// Expired or deleted between enqueue and claim.
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Job %s not found, skipping", jobID)
		return
	}
	if job.Status != entity.JobStatusQueued {
		// A cancellation can race the claim and leave the id in the
		// pending list; a terminal record must never move again.
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Job %s is %s, not queued, skipping", jobID, job.Status)
		return
	}

	c.logger.InfoWithContextf(ctx, "[Generation Consumer] Processing job %s (%s)", jobID, job.JobType)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := repo.Update(ctx, jobID, repository.JobUpdate{
		Status:    strptr(entity.JobStatusProcessing),
		StartedAt: strptr(now),
		Progress:  intptr(0),
		Stage:     strptr("initializing"),
	}); err != nil {
		c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to mark job %s processing", jobID)
		return
	}
	if err := c.progress.PublishStatusUpdate(ctx, jobID, entity.JobStatusProcessing); err != nil {
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Failed to publish status update for job %s: %v", jobID, err)
	}

	result, err := c.generate(ctx, job)
	if err != nil {
		c.failJob(ctx, jobID, err)
		return
	}

	c.completeJob(ctx, jobID, result)
}

func (c *GenerationConsumer) generate(ctx context.Context, job *entity.Job) (*entity.JobResult, error) {
	repo := c.repository.JobRepo
	input := job.InputData
	if input == nil {
		return nil, fmt.Errorf("job %s has no input", job.JobID)
	}

	prompt := input.Prompt
	if input.EnhancePrompt && prompt != "" {
		if err := repo.Update(ctx, job.JobID, repository.JobUpdate{
			Stage:    strptr("enhancing_prompt"),
			Progress: intptr(5),
		}); err != nil {
			c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to record enhancement stage for job %s", job.JobID)
		}

		enhancer := c.providers.ForName(input.LLMProvider)
		enhanced, _, err := enhancer.Enhance(ctx, prompt, "")
		if err != nil {
			// Enhancement is best-effort: fall back to the original
			// prompt, never fail the job.
			c.logger.WarningWithContextf(ctx, "[Generation Consumer] Prompt enhancement failed for job %s: %v", job.JobID, err)
		} else {
			prompt = enhanced
			input.EnhancedPrompt = enhanced
			if err := repo.Update(ctx, job.JobID, repository.JobUpdate{InputData: input}); err != nil {
				c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to store enhanced prompt for job %s", job.JobID)
			}
		}
	}

	onProgress := c.progressCallback(ctx, job.JobID)

	req := pipeline.Request{
		JobID:  job.JobID,
		Prompt: prompt,
	}
	if job.Parameters != nil {
		req.Seed = job.Parameters.Seed
		req.Resolution = job.Parameters.Resolution
		req.SparseStructureSamplerParams = job.Parameters.SparseStructureSamplerParams
		req.SlatSamplerParams = job.Parameters.SlatSamplerParams
	}

	var out *pipeline.Result
	var err error

	switch job.JobType {
	case entity.JobTypeTextTo3D:
		out, err = c.engine.GenerateFromText(ctx, req, onProgress)
	case entity.JobTypeImageTo3D:
		image, found, getErr := c.uploads.GetUpload(ctx, input.ImageFilename)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load input image %s: %w", input.ImageFilename, getErr)
		}
		if !found {
			return nil, fmt.Errorf("image not found: %s", input.ImageFilename)
		}
		req.Image = image
		out, err = c.engine.GenerateFromImage(ctx, req, onProgress)
	default:
		return nil, fmt.Errorf("unknown job type: %s", job.JobType)
	}
	if err != nil {
		return nil, err
	}

	result := &entity.JobResult{
		FileSizes: out.FileSizes,
	}
	if out.GLBKey != "" {
		result.GLBURL = fmt.Sprintf("/api/v1/download/%s.glb", job.JobID)
	}
	if out.PLYKey != "" {
		result.PLYURL = fmt.Sprintf("/api/v1/download/%s.ply", job.JobID)
	}
	if out.PreviewKey != "" {
		result.PreviewURL = fmt.Sprintf("/api/v1/download/preview/%s.png", job.JobID)
	}

	return result, nil
}

// progressCallback persists progress to the store, then publishes. Both
// effects complete before the callback returns, so no subscriber can see a
// published event ahead of its store write.
func (c *GenerationConsumer) progressCallback(ctx context.Context, jobID string) pipeline.ProgressFunc {
	return func(progress int, stage string, stageProgress int) {
		if err := c.repository.JobRepo.Update(ctx, jobID, repository.JobUpdate{
			Progress:      intptr(progress),
			Stage:         strptr(stage),
			StageProgress: intptr(stageProgress),
		}); err != nil {
			c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to persist progress for job %s", jobID)
		}

		if err := c.progress.PublishProgressUpdate(ctx, jobID, progress, stage, stageProgress); err != nil {
			c.logger.WarningWithContextf(ctx, "[Generation Consumer] Failed to publish progress for job %s: %v", jobID, err)
		}
	}
}

// cancelledMidFlight reports whether the job was cancelled while the worker
// held it. The worker loses that race deliberately: the cancellation's
// terminal write wins and the worker's outcome is discarded.
func (c *GenerationConsumer) cancelledMidFlight(ctx context.Context, jobID string) bool {
	job, err := c.repository.JobRepo.Get(ctx, jobID)
	if err != nil || job == nil {
		return false
	}
	return job.Status == entity.JobStatusCancelled
}

func (c *GenerationConsumer) completeJob(ctx context.Context, jobID string, result *entity.JobResult) {
	if c.cancelledMidFlight(ctx, jobID) {
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Job %s was cancelled during processing, discarding result", jobID)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.repository.JobRepo.Update(ctx, jobID, repository.JobUpdate{
		Status:      strptr(entity.JobStatusCompleted),
		CompletedAt: strptr(now),
		Progress:    intptr(100),
		Stage:       strptr("completed"),
		Result:      result,
	}); err != nil {
		c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to mark job %s completed", jobID)
		return
	}

	if err := c.progress.PublishCompletion(ctx, jobID, result); err != nil {
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Failed to publish completion for job %s: %v", jobID, err)
	}

	c.logger.InfoWithContextf(ctx, "[Generation Consumer] Job %s completed successfully", jobID)
}

func (c *GenerationConsumer) failJob(ctx context.Context, jobID string, cause error) {
	c.logger.ErrorWithContextf(ctx, cause, "[Generation Consumer] Job %s failed", jobID)

	if c.cancelledMidFlight(ctx, jobID) {
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Job %s was cancelled during processing, discarding failure", jobID)
		return
	}

	jobErr := &entity.JobError{
		Code:        "PROCESSING_ERROR",
		Message:     cause.Error(),
		Recoverable: false,
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := c.repository.JobRepo.Update(ctx, jobID, repository.JobUpdate{
		Status:      strptr(entity.JobStatusFailed),
		CompletedAt: strptr(now),
		Error:       jobErr,
	}); err != nil {
		c.logger.ErrorWithContextf(ctx, err, "[Generation Consumer] Failed to mark job %s failed", jobID)
		return
	}

	if err := c.progress.PublishError(ctx, jobID, jobErr); err != nil {
		c.logger.WarningWithContextf(ctx, "[Generation Consumer] Failed to publish error for job %s: %v", jobID, err)
	}
}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }
