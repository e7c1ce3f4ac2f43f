package entity

const (
	JobTypeTextTo3D  = "text_to_3d"
	JobTypeImageTo3D = "image_to_3d"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobInput carries the user-supplied payload for one generation request.
// Field names are wire-visible and must stay stable.
type JobInput struct {
	Type           string `json:"type"` // "text" or "image"
	Prompt         string `json:"prompt,omitempty"`
	EnhancedPrompt string `json:"enhanced_prompt,omitempty"`
	ImageFilename  string `json:"image_filename,omitempty"`
	EnhancePrompt  bool   `json:"enhance_prompt"`
	LLMProvider    string `json:"llm_provider,omitempty"`
}

// JobParameters are opaque generation knobs passed through to the pipeline.
type JobParameters struct {
	Seed                         *int64                 `json:"seed,omitempty"`
	Resolution                   string                 `json:"resolution,omitempty"`
	SparseStructureSamplerParams map[string]interface{} `json:"sparse_structure_sampler_params,omitempty"`
	SlatSamplerParams            map[string]interface{} `json:"slat_sampler_params,omitempty"`
}

type JobResult struct {
	GLBURL     string           `json:"glb_url,omitempty"`
	PLYURL     string           `json:"ply_url,omitempty"`
	PreviewURL string           `json:"preview_url,omitempty"`
	FileSizes  map[string]int64 `json:"file_sizes,omitempty"`
}

type JobError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Job is the durable record of one generation request. It lives in a Redis
// hash under job:{id} with a retention TTL; once terminal it is immutable
// except for expiry.
type Job struct {
	JobID         string         `json:"job_id"`
	JobType       string         `json:"job_type"`
	Status        string         `json:"status"`
	InputData     *JobInput      `json:"input_data,omitempty"`
	Parameters    *JobParameters `json:"parameters,omitempty"`
	CreatedAt     string         `json:"created_at"`
	StartedAt     string         `json:"started_at,omitempty"`
	CompletedAt   string         `json:"completed_at,omitempty"`
	Result        *JobResult     `json:"result,omitempty"`
	Error         *JobError      `json:"error,omitempty"`
	Progress      int            `json:"progress"`
	Stage         string         `json:"stage,omitempty"`
	StageProgress int            `json:"stage_progress"`
}
