package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/tnqbao/gau-3d-forge/infra"
)

// SyntheticEngine produces deterministic placeholder artifacts. It stands in
// for the GPU inference pipeline in development and CI: the staged progress
// reporting and the exported file set match the real pipeline exactly.
type SyntheticEngine struct {
	storage ArtifactStore
}

func NewSyntheticEngine(storage ArtifactStore) *SyntheticEngine {
	return &SyntheticEngine{storage: storage}
}

func resolutionSize(resolution string) int {
	switch resolution {
	case "low":
		return 16 * 1024
	case "high":
		return 256 * 1024
	default:
		return 64 * 1024
	}
}

func (e *SyntheticEngine) GenerateFromText(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	if onProgress != nil {
		onProgress(10, "preparing_prompt", 100)
	}

	return e.generate(ctx, req, onProgress)
}

func (e *SyntheticEngine) GenerateFromImage(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("empty input image")
	}

	if onProgress != nil {
		onProgress(10, "loading_image", 100)
		onProgress(20, "preprocessing", 100)
	}

	return e.generate(ctx, req, onProgress)
}

func (e *SyntheticEngine) generate(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	seed := int64(42)
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	if onProgress != nil {
		onProgress(30, "generating_sparse_structure", 0)
		onProgress(50, "generating_slat", 0)
		onProgress(70, "exporting", 0)
	}

	size := resolutionSize(req.Resolution)

	if onProgress != nil {
		onProgress(75, "exporting_glb", 0)
	}
	glbData := syntheticGLB(rng, size)
	glbKey, err := e.storage.SaveArtifact(ctx, req.JobID, glbData, infra.ArtifactKindGLB)
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(85, "exporting_ply", 0)
	}
	plyData := syntheticPLY(rng, size/4)
	plyKey, err := e.storage.SaveArtifact(ctx, req.JobID, plyData, infra.ArtifactKindPLY)
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(95, "generating_preview", 0)
	}
	result := &Result{
		GLBKey: glbKey,
		PLYKey: plyKey,
		FileSizes: map[string]int64{
			"glb": int64(len(glbData)),
			"ply": int64(len(plyData)),
		},
	}

	// Preview failure is tolerated upstream, mirror that here: a missing
	// preview never fails the run.
	previewData := syntheticPNG(rng)
	if previewKey, err := e.storage.SaveArtifact(ctx, req.JobID, previewData, infra.ArtifactKindPreview); err == nil {
		result.PreviewKey = previewKey
		result.FileSizes["preview"] = int64(len(previewData))
	}

	return result, nil
}

// syntheticGLB emits a minimal binary-glTF container padded with seeded
// noise so artifact sizes track the resolution tier.
func syntheticGLB(rng *rand.Rand, size int) []byte {
	payload := make([]byte, size)
	rng.Read(payload)

	header := make([]byte, 12)
	copy(header, "glTF")
	binary.LittleEndian.PutUint32(header[4:], 2)
	binary.LittleEndian.PutUint32(header[8:], uint32(12+len(payload)))

	return append(header, payload...)
}

func syntheticPLY(rng *rand.Rand, vertices int) []byte {
	buf := []byte(fmt.Sprintf("ply\nformat binary_little_endian 1.0\nelement vertex %d\nproperty float x\nproperty float y\nproperty float z\nend_header\n", vertices))
	body := make([]byte, vertices*12)
	rng.Read(body)
	return append(buf, body...)
}

// syntheticPNG is a 1x1 PNG with a seeded pixel.
func syntheticPNG(rng *rand.Rand) []byte {
	// Precomputed signature + IHDR for a 1x1 RGBA image; the payload byte
	// varies with the seed purely so previews differ between jobs.
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	body := make([]byte, 64)
	rng.Read(body)
	return append(sig, body...)
}
