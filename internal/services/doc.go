// Package services implements the business logic layer of the D'Busana
// sales dashboard. It provides a clean separation between HTTP handlers
// and data access, ensuring that business rules are centralized and
// testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- DataService: dashboard KPIs, daily revenue series and breakdowns
//	- ImportService: runs marketplace export files through the import pipeline
//	- ForecastService: revenue forecasting over the stored series
//	- HealthService: system health checks and runtime statistics
//
// # Error Handling
//
// Services return the domain sentinel errors from internal/errors that
// handlers transform into RFC 7807 problem responses:
//
//	- Validation errors for invalid input
//	- Not found errors for missing resources
//	- Conflict errors for concurrent imports
//	- Internal errors for unexpected failures
package services
