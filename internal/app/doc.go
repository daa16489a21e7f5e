// Package app assembles the D'Busana sales dashboard server. It
// loads configuration, initializes logging and OpenTelemetry, wires
// the sales store, import pipeline, forecast engine and WebSocket hub
// into the service layer, and runs the HTTP server with graceful
// shutdown.
package app
