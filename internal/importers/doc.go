// Package importers turns a mounted Kobo into Markdown files.
//
// # Architecture
//
// The pipeline follows a simple flow:
//
//	Scanner → Device → kobo.Reader → []entities.Book → Cover Extractor → Exporter → Files
//
// The Orchestrator owns that flow. Each stage is a small interface so that
// tests can swap in stubs:
//
//   - DeviceScanner finds the mounted reader (device.Scanner)
//   - BookReader reads the content database (kobo.Reader)
//   - CoverExtractor caches cover images (covers.Extractor)
//   - exporters.BookExporter writes the documents (exporters.MarkdownExporter)
//
// # Failure Handling
//
// Failures that invalidate the whole call (no device, unreadable database,
// unusable export directory) are returned as a *StageError naming the stage.
// Everything scoped to one item (a malformed row, a corrupt EPUB, a file that
// cannot be written) is recorded as an entities.ItemFailure and the rest of
// the batch continues.
//
// # Example Usage
//
//	orchestrator := importers.NewOrchestrator(
//		device.NewScanner(cfg.Device.MountRoots),
//		extractor,
//		exporters.NewMarkdownExporter(),
//	)
//
//	dev := orchestrator.Scan()
//	if dev == nil {
//		return importers.ErrDeviceNotFound
//	}
//	imported, err := orchestrator.Import(ctx, dev)
//	// handle err, report imported.Skipped
//	exported, err := orchestrator.Export(ctx, imported.Books, exportConfig)
package importers
