// Package events contains event contract definitions for WebSocket
// communication in the D'Busana sales dashboard.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Import pipeline progress - the primary event type
	MessageTypeImportProgress MessageType = "import:progress"

	// Forecast run lifecycle
	MessageTypeForecastStarted   MessageType = "forecast:started"
	MessageTypeForecastCompleted MessageType = "forecast:completed"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Message represents a complete WebSocket message
type Message struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// ImportProgress is pushed for every stage change of an import batch.
type ImportProgress struct {
	BatchID     string     `json:"batch_id"`
	FileName    string     `json:"file_name"`
	Status      string     `json:"status"` // pending|running|completed|partial|failed
	Stage       string     `json:"stage"`  // scan|parse|validate|aggregate|export
	Progress    int        `json:"progress"` // 0-100
	Imported    int        `json:"imported"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ForecastRun describes a forecast lifecycle event.
type ForecastRun struct {
	Horizon   int     `json:"horizon"`
	Model     string  `json:"model,omitempty"`
	DataDays  int     `json:"data_days"`
	MAPE      float64 `json:"mape,omitempty"`
	Quality   float64 `json:"quality_score,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}
