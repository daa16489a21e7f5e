// Package http contains the HTTP transport layer for the D'Busana
// sales dashboard. Handlers are thin adapters around the services
// layer: they validate input, call a service, and render either a
// JSON payload or an RFC 7807 problem document.
//
// Each handler depends on a small interface declared in
// interfaces.go rather than on a concrete service, which keeps the
// handlers testable with in-memory fakes.
package http
