// Package exporter writes dashboard data to CSV files under the
// configured export directory.
//
// CSVWriter is the core writer with header, append, and streaming
// support, always prefixing a UTF-8 BOM so the files open cleanly in
// Excel.
//
// ForecastExporter writes forecast runs: one row per predicted day
// plus a companion accuracy-metrics file.
//
// ReportExporter writes the daily revenue series and the marketplace
// breakdown the dashboard shows, so the numbers can leave the system
// for bookkeeping.
package exporter
