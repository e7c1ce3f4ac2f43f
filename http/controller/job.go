package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/http/controller/dto"
	"github.com/tnqbao/gau-3d-forge/utils"
)

func (ctrl *Controller) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("id")

	job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to load job %s", jobID)
		utils.JSON503(c, "Job store unavailable")
		return
	}
	if job == nil {
		utils.JSON404(c, "Job not found")
		return
	}

	utils.JSON200(c, job)
}

func (ctrl *Controller) CancelJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := c.Param("id")

	job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to load job %s", jobID)
		utils.JSON503(c, "Job store unavailable")
		return
	}
	if job == nil {
		utils.JSON404(c, "Job not found")
		return
	}

	cancelled, err := ctrl.Repository.JobRepo.Cancel(ctx, jobID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to cancel job %s", jobID)
		utils.JSON503(c, "Job store unavailable")
		return
	}
	if !cancelled {
		utils.JSON400(c, "Cannot cancel job in status: "+job.Status)
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Job] Cancelled job %s", jobID)

	utils.JSON200(c, dto.CancelResponseDTO{
		JobID:   jobID,
		Status:  entity.JobStatusCancelled,
		Message: "Job cancelled successfully",
	})
}

func (ctrl *Controller) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()

	limit := int64(10)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = min(n, 100)
		}
	}

	pendingIDs, err := ctrl.Repository.JobRepo.PeekPending(ctx, limit)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to peek pending jobs")
		utils.JSON503(c, "Job store unavailable")
		return
	}

	jobs := make([]*entity.Job, 0, len(pendingIDs))
	for _, jobID := range pendingIDs {
		job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
		if err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to load pending job %s", jobID)
			continue
		}
		if job != nil {
			jobs = append(jobs, job)
		}
	}

	queueSize, err := ctrl.Repository.JobRepo.Size(ctx)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Job] Failed to read queue size")
		utils.JSON503(c, "Job store unavailable")
		return
	}

	utils.JSON200(c, dto.JobListResponseDTO{
		Jobs:      jobs,
		Total:     len(jobs),
		QueueSize: queueSize,
	})
}
