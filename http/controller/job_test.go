package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-3d-forge/config"
	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/http/controller/dto"
	"github.com/tnqbao/gau-3d-forge/http/socket"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/infra/produce"
	"github.com/tnqbao/gau-3d-forge/repository"
)

type controllerFixture struct {
	ctrl   *Controller
	router *gin.Engine
	repo   *repository.JobRepository
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	envCfg := &config.EnvConfig{}
	envCfg.Server.PublicHost = "forge.example.com"
	envCfg.Environment.Mode = "development"

	jobRepo := repository.NewJobRepository(client, "forge_jobs_test", 24)
	logger := infra.InitLoggerClient(envCfg, nil)

	ctrl := &Controller{
		Config: &config.Config{EnvConfig: envCfg},
		Infra: &infra.Infra{
			Redis:   &infra.RedisClient{Client: client},
			Logger:  logger,
			Produce: &produce.Produce{ProgressService: produce.InitProgressService(client)},
		},
		Repository: &repository.Repository{JobRepo: jobRepo},
		Hub:        socket.NewHub(logger),
	}

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/generate/text-to-3d", ctrl.GenerateTextTo3D)
	api.GET("/jobs", ctrl.ListJobs)
	api.GET("/jobs/:id", ctrl.GetJob)
	api.DELETE("/jobs/:id", ctrl.CancelJob)
	api.GET("/health", ctrl.Health)

	return &controllerFixture{ctrl: ctrl, router: router, repo: jobRepo}
}

func (f *controllerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestGenerateTextTo3D(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/generate/text-to-3d", gin.H{
		"prompt":     "a red chair",
		"resolution": "low",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.GenerationResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, entity.JobStatusQueued, resp.Status)
	assert.NotEmpty(t, resp.CreatedAt)
	assert.Equal(t, 60, resp.EstimatedTime)
	assert.Equal(t, "ws://forge.example.com/ws/jobs/"+resp.JobID, resp.WebsocketURL)

	job, err := f.repo.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, entity.JobTypeTextTo3D, job.JobType)
	assert.Equal(t, "a red chair", job.InputData.Prompt)
	assert.Equal(t, "low", job.Parameters.Resolution)
}

func TestGenerateTextTo3DRequiresPrompt(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/generate/text-to-3d", gin.H{"resolution": "low"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJob(t *testing.T) {
	f := newControllerFixture(t)

	jobID, err := f.repo.Enqueue(context.Background(), entity.JobTypeTextTo3D,
		&entity.JobInput{Type: "text", Prompt: "a red chair"}, nil)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var job entity.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, jobID, job.JobID)
	assert.Equal(t, entity.JobStatusQueued, job.Status)
}

func TestGetJobNotFound(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelQueuedJobEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	jobID, err := f.repo.Enqueue(context.Background(), entity.JobTypeTextTo3D,
		&entity.JobInput{Type: "text", Prompt: "a red chair"}, nil)
	require.NoError(t, err)

	w := f.do(t, http.MethodDelete, "/api/v1/jobs/"+jobID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CancelResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.JobStatusCancelled, resp.Status)

	job, err := f.repo.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCancelled, job.Status)
}

func TestCancelTerminalJobEndpoint(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	jobID, err := f.repo.Enqueue(ctx, entity.JobTypeTextTo3D,
		&entity.JobInput{Type: "text", Prompt: "a red chair"}, nil)
	require.NoError(t, err)

	status := entity.JobStatusCompleted
	completed := time.Now().UTC().Format(time.RFC3339Nano)
	require.NoError(t, f.repo.Update(ctx, jobID, repository.JobUpdate{Status: &status, CompletedAt: &completed}))

	w := f.do(t, http.MethodDelete, "/api/v1/jobs/"+jobID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelMissingJobEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodDelete, "/api/v1/jobs/no-such-job", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListJobs(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.repo.Enqueue(ctx, entity.JobTypeTextTo3D,
			&entity.JobInput{Type: "text", Prompt: "x"}, nil)
		require.NoError(t, err)
	}

	w := f.do(t, http.MethodGet, "/api/v1/jobs?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.JobListResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Jobs, 2)
	assert.Equal(t, int64(3), resp.QueueSize)
}

func TestHealth(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, true, resp["redis"])
}
