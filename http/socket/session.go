package socket

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/repository"
)

// SessionConn is the full duplex surface a session needs from its
// transport. *websocket.Conn satisfies it.
type SessionConn interface {
	Connection
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// safeConn serializes writes to the underlying connection. gorilla/websocket
// permits a single concurrent writer, and a session has three: the outbound
// relay, the inbound relay's replies, and the hub bridge fan-out.
type safeConn struct {
	SessionConn
	mu sync.Mutex
}

func (c *safeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.SessionConn.WriteJSON(v)
}

// Session relays one job's updates to one client connection. The outbound
// relay polls the job store so a session stays correct even when a pub/sub
// publish was missed or the client attached after updates already happened.
type Session struct {
	conn         SessionConn
	jobID        string
	hub          *Hub
	jobs         *repository.JobRepository
	logger       *infra.LoggerClient
	pollInterval time.Duration
}

func NewSession(conn SessionConn, jobID string, hub *Hub, jobs *repository.JobRepository, logger *infra.LoggerClient, pollInterval time.Duration) *Session {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Session{
		conn:         &safeConn{SessionConn: conn},
		jobID:        jobID,
		hub:          hub,
		jobs:         jobs,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

func nowstamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Run drives the session until the job terminates or the client
// disconnects. The hub registration is always released on exit.
func (s *Session) Run(ctx context.Context) {
	s.hub.Attach(s.conn, s.jobID)
	defer s.hub.Detach(s.conn, s.jobID)
	defer s.conn.Close()

	job, err := s.jobs.Get(ctx, s.jobID)
	if err != nil {
		s.logger.ErrorWithContextf(ctx, err, "[Session] Failed to load job %s on attach", s.jobID)
		return
	}
	if job == nil {
		s.send(entity.ProgressMessage{
			Type:  entity.MessageTypeError,
			JobID: s.jobID,
			Error: &entity.JobError{Code: "JOB_NOT_FOUND", Message: "Job not found"},
		})
		return
	}

	progress := job.Progress
	s.send(entity.ProgressMessage{
		Type:          entity.MessageTypeConnected,
		JobID:         s.jobID,
		CurrentStatus: job.Status,
		Progress:      &progress,
	})

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The reader blocks in ReadMessage; closing the conn on cancellation
	// is what unblocks it when the outbound relay finishes first.
	go func() {
		<-sctx.Done()
		_ = s.conn.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		s.outboundRelay(sctx, job)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		s.inboundRelay(sctx)
	}()

	wg.Wait()
}

// outboundRelay polls the store and forwards status/progress transitions.
// It returns once the job reaches a terminal state.
func (s *Session) outboundRelay(ctx context.Context, last *entity.Job) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	lastStatus := last.Status
	lastProgress := last.Progress

	// A job that is already terminal on attach still gets its terminal
	// event on the first poll cycle.
	if entity.IsTerminal(lastStatus) {
		lastStatus = ""
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		job, err := s.jobs.Get(ctx, s.jobID)
		if err != nil {
			s.logger.WarningWithContextf(ctx, "[Session] Poll failed for job %s: %v", s.jobID, err)
			continue
		}
		if job == nil {
			// Expired mid-session.
			s.send(entity.ProgressMessage{
				Type:  entity.MessageTypeError,
				JobID: s.jobID,
				Error: &entity.JobError{Code: "JOB_NOT_FOUND", Message: "Job not found"},
			})
			return
		}

		if job.Status == lastStatus && job.Progress == lastProgress {
			continue
		}
		lastStatus = job.Status
		lastProgress = job.Progress

		switch job.Status {
		case entity.JobStatusCompleted:
			progress := job.Progress
			s.send(entity.ProgressMessage{
				Type:     entity.MessageTypeCompletion,
				JobID:    s.jobID,
				Status:   job.Status,
				Progress: &progress,
				Result:   job.Result,
			})
			return
		case entity.JobStatusFailed:
			jobErr := job.Error
			if jobErr == nil {
				jobErr = &entity.JobError{Code: "PROCESSING_ERROR", Message: "Job failed"}
			}
			s.send(entity.ProgressMessage{
				Type:  entity.MessageTypeError,
				JobID: s.jobID,
				Error: jobErr,
			})
			return
		case entity.JobStatusCancelled:
			s.send(entity.ProgressMessage{
				Type:   entity.MessageTypeStatusUpdate,
				JobID:  s.jobID,
				Status: job.Status,
			})
			return
		default:
			progress := job.Progress
			stageProgress := job.StageProgress
			s.send(entity.ProgressMessage{
				Type:          entity.MessageTypeProgressUpdate,
				JobID:         s.jobID,
				Status:        job.Status,
				Progress:      &progress,
				Stage:         job.Stage,
				StageProgress: &stageProgress,
			})
		}
	}
}

// inboundRelay consumes client frames until disconnect. Malformed JSON is
// answered with a non-fatal error message.
func (s *Session) inboundRelay(ctx context.Context) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && err != io.EOF {
				s.logger.InfoWithContextf(ctx, "[Session] Client for job %s disconnected: %v", s.jobID, err)
			}
			return
		}

		var msg entity.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(entity.ProgressMessage{
				Type:  entity.MessageTypeError,
				Error: &entity.JobError{Code: "INVALID_JSON", Message: "Invalid JSON message"},
			})
			continue
		}

		switch msg.Type {
		case entity.ClientMessagePing:
			s.send(entity.ProgressMessage{Type: entity.MessageTypePong})
		case entity.ClientMessageGetStatus:
			job, err := s.jobs.Get(ctx, s.jobID)
			if err != nil || job == nil {
				continue
			}
			progress := job.Progress
			stageProgress := job.StageProgress
			s.send(entity.ProgressMessage{
				Type:          entity.MessageTypeStatusUpdate,
				JobID:         s.jobID,
				Status:        job.Status,
				Progress:      &progress,
				Stage:         job.Stage,
				StageProgress: &stageProgress,
			})
		case entity.ClientMessageSubscribe:
			// Already subscribed by attaching.
		}
	}
}

func (s *Session) send(msg entity.ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = nowstamp()
	}
	_ = s.conn.WriteJSON(msg)
}
