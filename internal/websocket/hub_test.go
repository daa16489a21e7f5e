package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/pkg/contracts/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// receiveMessage waits for the next frame on the client's send channel.
func receiveMessage(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()

	select {
	case data := <-client.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func startHubWithClient(t *testing.T) (*Hub, *Client) {
	t.Helper()

	hub := NewHub(testLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	client := NewClientWithConnection(hub, NewMockConnection(), testLogger())
	hub.Register(client)

	// The hub greets every new client before anything else.
	greeting := receiveMessage(t, client)
	require.Equal(t, TypeConnection, greeting["type"])

	return hub, client
}

func TestNewHub(t *testing.T) {
	hub := NewHub(testLogger())

	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub, client := startHubWithClient(t)

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.unregister <- client

	assert.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubConnectionGreeting(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	defer hub.Stop()

	client := NewClientWithConnection(hub, NewMockConnection(), testLogger())
	hub.Register(client)

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeConnection, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.id, data["client_id"])
}

func TestBroadcastImportProgress(t *testing.T) {
	hub, client := startHubWithClient(t)

	started := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	go func() {
		// broadcastJSON blocks until the hub loop picks the frame up
		hub.BroadcastImportProgress(events.ImportProgress{
			BatchID:   "batch-1",
			FileName:  "sales_april.xlsx",
			Status:    "running",
			Stage:     "parse",
			Progress:  40,
			StartedAt: started,
			UpdatedAt: started.Add(time.Second),
		})
	}()

	msg := receiveMessage(t, client)
	assert.Equal(t, string(events.MessageTypeImportProgress), msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "batch-1", data["batch_id"])
	assert.Equal(t, "sales_april.xlsx", data["file_name"])
	assert.Equal(t, "running", data["status"])
	assert.Equal(t, "parse", data["stage"])
	assert.Equal(t, float64(40), data["progress"])
}

func TestBroadcastForecastCompleted(t *testing.T) {
	hub, client := startHubWithClient(t)

	go func() {
		hub.BroadcastForecastCompleted(events.ForecastRun{
			Horizon:  30,
			Model:    "hybrid",
			DataDays: 120,
			MAPE:     8.4,
		})
	}()

	msg := receiveMessage(t, client)
	assert.Equal(t, string(events.MessageTypeForecastCompleted), msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(30), data["horizon"])
	assert.Equal(t, "hybrid", data["model"])
	assert.Equal(t, float64(8.4), data["mape"])
}

func TestBroadcastError_RecoveryHint(t *testing.T) {
	hub, client := startHubWithClient(t)

	go func() {
		hub.BroadcastError("IMPORT_UNSUPPORTED_FORMAT", "cannot read file", "file.pdf", "scan", true)
	}()

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeError, msg["type"])

	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "IMPORT_UNSUPPORTED_FORMAT", data["code"])
	assert.Equal(t, ErrorRecoveryHints["IMPORT_UNSUPPORTED_FORMAT"], data["hint"])
	assert.Equal(t, true, data["recoverable"])
}

func TestBroadcastError_DefaultHint(t *testing.T) {
	hub, client := startHubWithClient(t)

	go func() {
		hub.BroadcastError("SOMETHING_ELSE", "boom", "", "export", false)
	}()

	msg := receiveMessage(t, client)
	data, ok := msg["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, ErrorRecoveryHints["default"], data["hint"])
}

func TestBroadcastRefresh(t *testing.T) {
	hub, client := startHubWithClient(t)

	go func() {
		hub.BroadcastRefresh("import", []string{"dashboard", "daily_revenue"})
	}()

	msg := receiveMessage(t, client)
	assert.Equal(t, TypeDataUpdate, msg["type"])
	assert.Equal(t, SubtypeAll, msg["subtype"])
	assert.Equal(t, ActionRefresh, msg["action"])
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()

	hub.Stop()
	hub.Stop()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestGetHubMetricsShape(t *testing.T) {
	hub := NewHub(testLogger())

	m := hub.GetHubMetrics()
	assert.Contains(t, m, "active_clients")
	assert.Contains(t, m, "total_connections")
	assert.Contains(t, m, "messages_sent")
}
