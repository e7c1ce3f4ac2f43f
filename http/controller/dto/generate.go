package dto

// TextTo3DRequestDTO is the JSON body of POST /generate/text-to-3d.
type TextTo3DRequestDTO struct {
	Prompt                       string                 `json:"prompt" binding:"required"`
	EnhancePrompt                bool                   `json:"enhance_prompt"`
	LLMProvider                  string                 `json:"llm_provider"`
	Seed                         *int64                 `json:"seed"`
	Resolution                   string                 `json:"resolution"`
	SparseStructureSamplerParams map[string]interface{} `json:"sparse_structure_sampler_params"`
	SlatSamplerParams            map[string]interface{} `json:"slat_sampler_params"`
}

// GenerationResponseDTO acknowledges an enqueued job.
type GenerationResponseDTO struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	EstimatedTime int    `json:"estimated_time"`
	WebsocketURL  string `json:"websocket_url"`
}
