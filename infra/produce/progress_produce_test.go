package produce

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-3d-forge/entity"
)

func newTestService(t *testing.T) *ProgressService {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return InitProgressService(client)
}

func TestProgressChannelRoundTrip(t *testing.T) {
	assert.Equal(t, "job:abc:progress", ProgressChannel("abc"))
	assert.Equal(t, "abc", JobIDFromChannel("job:abc:progress"))
}

func TestPublishReachesSubscriber(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub := svc.SubscribeAll(ctx)
	defer sub.Close()

	// Wait for the PSUBSCRIBE to be live before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.PublishProgressUpdate(ctx, "job-1", 30, "generating_sparse_structure", 0))

	select {
	case raw := <-sub.Channel():
		assert.Equal(t, ProgressChannel("job-1"), raw.Channel)

		var msg entity.ProgressMessage
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
		assert.Equal(t, entity.MessageTypeProgressUpdate, msg.Type)
		assert.Equal(t, "job-1", msg.JobID)
		require.NotNil(t, msg.Progress)
		assert.Equal(t, 30, *msg.Progress)
		assert.Equal(t, "generating_sparse_structure", msg.Stage)
		assert.NotEmpty(t, msg.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPublishCompletionCarriesResult(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub := svc.SubscribeAll(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	result := &entity.JobResult{
		GLBURL:    "/api/v1/download/job-2.glb",
		FileSizes: map[string]int64{"glb": 2048},
	}
	require.NoError(t, svc.PublishCompletion(ctx, "job-2", result))

	select {
	case raw := <-sub.Channel():
		var msg entity.ProgressMessage
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
		assert.Equal(t, entity.MessageTypeCompletion, msg.Type)
		assert.Equal(t, entity.JobStatusCompleted, msg.Status)
		require.NotNil(t, msg.Result)
		assert.Equal(t, result.GLBURL, msg.Result.GLBURL)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestPublishErrorCarriesCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub := svc.SubscribeAll(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	jobErr := &entity.JobError{Code: "PROCESSING_ERROR", Message: "boom"}
	require.NoError(t, svc.PublishError(ctx, "job-3", jobErr))

	select {
	case raw := <-sub.Channel():
		var msg entity.ProgressMessage
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
		assert.Equal(t, entity.MessageTypeError, msg.Type)
		require.NotNil(t, msg.Error)
		assert.Equal(t, "PROCESSING_ERROR", msg.Error.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
