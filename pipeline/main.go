package pipeline

import (
	"context"

	"github.com/tnqbao/gau-3d-forge/config"
)

// ProgressFunc reports generation progress. It is invoked synchronously on
// the worker goroutine: both the store write and the publish triggered by a
// call land before the generation routine continues.
type ProgressFunc func(progress int, stage string, stageProgress int)

// Request carries everything the engine needs to produce one model.
type Request struct {
	JobID                        string
	Prompt                       string
	Image                        []byte
	Seed                         *int64
	Resolution                   string
	SparseStructureSamplerParams map[string]interface{}
	SlatSamplerParams            map[string]interface{}
}

// Result references the exported artifacts and their byte sizes.
type Result struct {
	GLBKey     string
	PLYKey     string
	PreviewKey string
	FileSizes  map[string]int64
}

// ArtifactStore is the slice of the storage collaborator the engines use
// to export generated files.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, jobID string, content []byte, kind string) (string, error)
}

// Engine is the generation collaborator. A run is long and GPU-bound;
// callers must treat it as blocking and resource-exclusive.
type Engine interface {
	GenerateFromText(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error)
	GenerateFromImage(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error)
}

// NewEngine selects the engine implementation from configuration.
func NewEngine(cfg *config.EnvConfig, storage ArtifactStore) Engine {
	// Only the synthetic engine ships in-process; real inference runs
	// behind it when the TRELLIS sidecar lands.
	return NewSyntheticEngine(storage)
}
