package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/http/controller/dto"
	"github.com/tnqbao/gau-3d-forge/utils"
)

func estimatedTime(resolution string) int {
	switch resolution {
	case "low":
		return 60
	case "high":
		return 180
	default:
		return 120
	}
}

func (ctrl *Controller) websocketURL(jobID string) string {
	return fmt.Sprintf("ws://%s/ws/jobs/%s", ctrl.Config.EnvConfig.Server.PublicHost, jobID)
}

func (ctrl *Controller) GenerateTextTo3D(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TextTo3DRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to bind JSON: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	resolution := req.Resolution
	if resolution == "" {
		resolution = "medium"
	}

	input := &entity.JobInput{
		Type:          "text",
		Prompt:        req.Prompt,
		EnhancePrompt: req.EnhancePrompt,
		LLMProvider:   req.LLMProvider,
	}
	params := &entity.JobParameters{
		Seed:                         req.Seed,
		Resolution:                   resolution,
		SparseStructureSamplerParams: req.SparseStructureSamplerParams,
		SlatSamplerParams:            req.SlatSamplerParams,
	}

	jobID, err := ctrl.Repository.JobRepo.Enqueue(ctx, entity.JobTypeTextTo3D, input, params)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to enqueue text job")
		utils.JSON503(c, "Job store unavailable")
		return
	}

	job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
	if err != nil || job == nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to read back job %s", jobID)
		utils.JSON500(c, "Failed to read job")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Generate] Enqueued text_to_3d job %s", jobID)

	utils.JSON200(c, dto.GenerationResponseDTO{
		JobID:         jobID,
		Status:        job.Status,
		CreatedAt:     job.CreatedAt,
		EstimatedTime: estimatedTime(resolution),
		WebsocketURL:  ctrl.websocketURL(jobID),
	})
}

func (ctrl *Controller) GenerateImageTo3D(c *gin.Context) {
	ctx := c.Request.Context()
	cfg := ctrl.Config.EnvConfig

	fileHeader, err := c.FormFile("file")
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to get file from form data")
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	allowed := false
	for _, mime := range cfg.Worker.AllowedImageMIME {
		if contentType == mime {
			allowed = true
			break
		}
	}
	if !allowed {
		utils.JSON400(c, fmt.Sprintf("Invalid file type: %s. Allowed: %s", contentType, strings.Join(cfg.Worker.AllowedImageMIME, ", ")))
		return
	}

	if fileHeader.Size > cfg.Worker.MaxUploadSize {
		utils.JSON400(c, fmt.Sprintf("File too large. Maximum size: %d bytes", cfg.Worker.MaxUploadSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to open uploaded file")
		utils.JSON500(c, "Failed to read upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, cfg.Worker.MaxUploadSize+1))
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to read uploaded file")
		utils.JSON500(c, "Failed to read upload")
		return
	}
	if int64(len(content)) > cfg.Worker.MaxUploadSize {
		utils.JSON400(c, fmt.Sprintf("File too large. Maximum size: %d bytes", cfg.Worker.MaxUploadSize))
		return
	}

	filename, err := ctrl.Infra.Minio.SaveUpload(ctx, content, fileHeader.Filename, contentType)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to store upload")
		utils.JSON500(c, "Failed to store upload")
		return
	}

	enhancePrompt, _ := strconv.ParseBool(c.DefaultPostForm("enhance_prompt", "false"))
	llmProvider := c.DefaultPostForm("llm_provider", "ollama")
	resolution := c.DefaultPostForm("resolution", "medium")

	var seed *int64
	if seedStr := c.PostForm("seed"); seedStr != "" {
		if n, err := strconv.ParseInt(seedStr, 10, 64); err == nil {
			seed = &n
		}
	}

	input := &entity.JobInput{
		Type:          "image",
		ImageFilename: filename,
		EnhancePrompt: enhancePrompt,
		LLMProvider:   llmProvider,
	}
	params := &entity.JobParameters{
		Seed:                         seed,
		Resolution:                   resolution,
		SparseStructureSamplerParams: parseSamplerParams(c.PostForm("sparse_structure_sampler_params")),
		SlatSamplerParams:            parseSamplerParams(c.PostForm("slat_sampler_params")),
	}

	jobID, err := ctrl.Repository.JobRepo.Enqueue(ctx, entity.JobTypeImageTo3D, input, params)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to enqueue image job")
		utils.JSON503(c, "Job store unavailable")
		return
	}

	job, err := ctrl.Repository.JobRepo.Get(ctx, jobID)
	if err != nil || job == nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Generate] Failed to read back job %s", jobID)
		utils.JSON500(c, "Failed to read job")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Generate] Enqueued image_to_3d job %s (upload %s)", jobID, filename)

	utils.JSON200(c, dto.GenerationResponseDTO{
		JobID:         jobID,
		Status:        job.Status,
		CreatedAt:     job.CreatedAt,
		EstimatedTime: estimatedTime(resolution),
		WebsocketURL:  ctrl.websocketURL(jobID),
	})
}

// parseSamplerParams tolerates malformed sampler overrides: invalid JSON is
// treated as absent.
func parseSamplerParams(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil
	}
	return params
}
