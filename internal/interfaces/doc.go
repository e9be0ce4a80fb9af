// Package interfaces documents the abstractions that connect the highlights
// pipeline and holds compile-time checks for their implementations.
//
// # Interface Categories
//
// ## Pipeline
//
//   - DeviceScanner: finds mounted readers (internal/importers/orchestrator.go)
//   - BookReader: reads one content database (internal/importers/orchestrator.go)
//   - CoverExtractor: caches book covers (internal/importers/orchestrator.go)
//   - BookExporter: writes Markdown files (internal/exporters/generic.go)
//
// ## Persistence
//
//   - SessionStore: import history (internal/services/interfaces.go)
//   - SettingsProvider: saved export configuration (internal/services/interfaces.go)
//
// ## Background Work
//
//   - Library, SyncStatusRecorder, SessionPruner: task processors (internal/tasks)
//   - Settings, Enqueuer: the auto-sync scheduler (internal/scheduler)
//
// ## HTTP
//
// Each controller declares the narrow interface it needs in
// internal/http/stores.go.
//
// # Adding a New Export Format
//
//  1. Implement BookExporter in internal/exporters/
//
//     type JSONExporter struct{}
//
//     func (e *JSONExporter) Export(ctx context.Context, books []entities.Book, cfg entities.ExportConfig) (*ExportResult, error)
//
//  2. Pass it to importers.NewOrchestrator in internal/entrypoint/app.go
//
//  3. Add a compile-time check to checks.go
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register its models in database.NewDatabase and add an accessor
//
//  4. Add compile-time check:
//
//     var _ services.SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
