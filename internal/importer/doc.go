// Package importer ingests marketplace sales exports (xlsx or csv)
// into the canonical sales dataset.
//
// An upload runs through a staged pipeline:
//
//	scan -> parse -> validate -> aggregate -> export
//
// Each stage updates the batch state, records OpenTelemetry stage
// metrics, and pushes an ImportProgress event to the WebSocket hub so
// the dashboard can show live progress. Row-level failures never abort
// a batch; they are collected as RowIssues and the batch finishes as
// "partial".
//
// The parser does not assume a fixed column layout. Marketplace
// exports differ per platform and language, so headers are matched
// against a table of known aliases (English and Indonesian) and cell
// values are cleaned of currency prefixes, thousands separators, and
// Excel serial dates before conversion.
package importer
