package controller

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/utils"
)

// DownloadModel serves /download/{job_id}.glb and /download/{job_id}.ply.
func (ctrl *Controller) DownloadModel(c *gin.Context) {
	file := c.Param("file")

	switch {
	case strings.HasSuffix(file, ".glb"):
		jobID := strings.TrimSuffix(file, ".glb")
		ctrl.downloadArtifact(c, jobID, infra.ArtifactKindGLB, "model/gltf-binary", jobID+".glb")
	case strings.HasSuffix(file, ".ply"):
		jobID := strings.TrimSuffix(file, ".ply")
		ctrl.downloadArtifact(c, jobID, infra.ArtifactKindPLY, "application/x-ply", jobID+".ply")
	default:
		utils.JSON404(c, "Unknown artifact type")
	}
}

// DownloadPreview serves /download/preview/{job_id}.png.
func (ctrl *Controller) DownloadPreview(c *gin.Context) {
	file := c.Param("file")
	if !strings.HasSuffix(file, ".png") {
		utils.JSON404(c, "Unknown artifact type")
		return
	}

	jobID := strings.TrimSuffix(file, ".png")
	ctrl.downloadArtifact(c, jobID, infra.ArtifactKindPreview, "image/png", jobID+"_preview.png")
}

// downloadArtifact enforces the invalid-state rule (download needs a
// completed job) before streaming the artifact from storage.
func (ctrl *Controller) downloadArtifact(c *gin.Context, jobID, kind, contentType, downloadName string) {
	ctx := c.Request.Context()

	job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Download] Failed to load job %s", jobID)
		utils.JSON503(c, "Job store unavailable")
		return
	}
	if job == nil {
		utils.JSON404(c, "Job not found")
		return
	}
	if job.Status != entity.JobStatusCompleted {
		utils.JSON400(c, "Job not completed (status: "+job.Status+")")
		return
	}

	content, found, err := ctrl.Infra.Minio.GetArtifact(ctx, jobID, kind)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Download] Failed to fetch %s artifact for job %s", kind, jobID)
		utils.JSON500(c, "Failed to fetch artifact")
		return
	}
	if !found {
		utils.JSON404(c, "Artifact not found")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	c.Data(200, contentType, content)
}
