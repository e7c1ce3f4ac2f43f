package entity

// Message types published on the per-job progress channel and relayed to
// websocket sessions. The shape is {type, job_id, ...payload, timestamp}.
const (
	MessageTypeConnected      = "connected"
	MessageTypeStatusUpdate   = "status_update"
	MessageTypeProgressUpdate = "progress_update"
	MessageTypeCompletion     = "completion"
	MessageTypeError          = "error"
	MessageTypePong           = "pong"
)

// Inbound message types accepted from websocket clients.
const (
	ClientMessagePing      = "ping"
	ClientMessageGetStatus = "get_status"
	ClientMessageSubscribe = "subscribe"
)

// ProgressMessage is the envelope for every outbound notification. Optional
// fields are omitted depending on the message type.
type ProgressMessage struct {
	Type          string     `json:"type"`
	JobID         string     `json:"job_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	CurrentStatus string     `json:"current_status,omitempty"`
	Progress      *int       `json:"progress,omitempty"`
	Stage         string     `json:"stage,omitempty"`
	StageProgress *int       `json:"stage_progress,omitempty"`
	Message       string     `json:"message,omitempty"`
	Result        *JobResult `json:"result,omitempty"`
	Error         *JobError  `json:"error,omitempty"`
	Timestamp     string     `json:"timestamp"`
}

// ClientMessage is one inbound websocket frame from a client.
type ClientMessage struct {
	Type string `json:"type"`
}
