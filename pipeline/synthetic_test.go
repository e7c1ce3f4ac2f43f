package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) SaveArtifact(ctx context.Context, jobID string, content []byte, kind string) (string, error) {
	if kind == s.failOn {
		return "", fmt.Errorf("save %s failed", kind)
	}
	key := jobID + "/" + kind
	s.objects[key] = content
	return key, nil
}

type progressRecord struct {
	progress int
	stage    string
}

func recordProgress(records *[]progressRecord) ProgressFunc {
	return func(progress int, stage string, stageProgress int) {
		*records = append(*records, progressRecord{progress, stage})
	}
}

func TestGenerateFromTextExportsArtifacts(t *testing.T) {
	store := newMemStore()
	engine := NewSyntheticEngine(store)

	var records []progressRecord
	seed := int64(42)
	result, err := engine.GenerateFromText(context.Background(), Request{
		JobID:      "job-1",
		Prompt:     "a red chair",
		Seed:       &seed,
		Resolution: "medium",
	}, recordProgress(&records))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.GLBKey)
	assert.NotEmpty(t, result.PLYKey)
	assert.NotEmpty(t, result.PreviewKey)
	assert.Equal(t, int64(len(store.objects[result.GLBKey])), result.FileSizes["glb"])
	assert.Equal(t, int64(len(store.objects[result.PLYKey])), result.FileSizes["ply"])

	// Exported GLB carries the binary-glTF magic.
	assert.True(t, bytes.HasPrefix(store.objects[result.GLBKey], []byte("glTF")))
	assert.True(t, bytes.HasPrefix(store.objects[result.PLYKey], []byte("ply\n")))

	// Progress is monotonic and walks the generation stages in order.
	require.NotEmpty(t, records)
	last := -1
	for _, rec := range records {
		assert.GreaterOrEqual(t, rec.progress, last, "progress went backwards at stage %s", rec.stage)
		last = rec.progress
	}
	assert.Equal(t, "preparing_prompt", records[0].stage)
	assert.Equal(t, "generating_preview", records[len(records)-1].stage)
}

func TestGenerateFromTextRejectsEmptyPrompt(t *testing.T) {
	engine := NewSyntheticEngine(newMemStore())

	_, err := engine.GenerateFromText(context.Background(), Request{JobID: "job-1"}, nil)
	require.Error(t, err)
}

func TestGenerateFromImageExportsArtifacts(t *testing.T) {
	store := newMemStore()
	engine := NewSyntheticEngine(store)

	var records []progressRecord
	result, err := engine.GenerateFromImage(context.Background(), Request{
		JobID: "job-2",
		Image: []byte{0x89, 'P', 'N', 'G'},
	}, recordProgress(&records))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "loading_image", records[0].stage)
	assert.Equal(t, "preprocessing", records[1].stage)
}

func TestGenerateFromImageRejectsEmptyImage(t *testing.T) {
	engine := NewSyntheticEngine(newMemStore())

	_, err := engine.GenerateFromImage(context.Background(), Request{JobID: "job-2"}, nil)
	require.Error(t, err)
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	seed := int64(7)

	storeA := newMemStore()
	resultA, err := NewSyntheticEngine(storeA).GenerateFromText(context.Background(),
		Request{JobID: "job-a", Prompt: "x", Seed: &seed}, nil)
	require.NoError(t, err)

	storeB := newMemStore()
	resultB, err := NewSyntheticEngine(storeB).GenerateFromText(context.Background(),
		Request{JobID: "job-b", Prompt: "x", Seed: &seed}, nil)
	require.NoError(t, err)

	assert.Equal(t, storeA.objects[resultA.GLBKey], storeB.objects[resultB.GLBKey])
}

func TestResolutionControlsArtifactSize(t *testing.T) {
	store := newMemStore()
	engine := NewSyntheticEngine(store)

	low, err := engine.GenerateFromText(context.Background(),
		Request{JobID: "low", Prompt: "x", Resolution: "low"}, nil)
	require.NoError(t, err)

	high, err := engine.GenerateFromText(context.Background(),
		Request{JobID: "high", Prompt: "x", Resolution: "high"}, nil)
	require.NoError(t, err)

	assert.Greater(t, high.FileSizes["glb"], low.FileSizes["glb"])
}

func TestPreviewFailureDoesNotFailRun(t *testing.T) {
	store := newMemStore()
	store.failOn = "preview"
	engine := NewSyntheticEngine(store)

	result, err := engine.GenerateFromText(context.Background(),
		Request{JobID: "job-1", Prompt: "x"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.PreviewKey)
	assert.NotContains(t, result.FileSizes, "preview")
}
