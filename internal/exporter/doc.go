// Package exporter writes incident documents to the flat CSV consumed by the
// batch processing job.
//
// This package contains two components:
//
// StreamWriter: streaming CSV writing with a header row, optional UTF-8 BOM
// and explicit flushes so partial output reaches disk.
//
// Exporter: reads every document of a source.DocumentSource, normalizes it
// with incident.Normalize and writes exactly one 20-column row per document.
//
// Example usage:
//
//	src, err := source.OpenMongo(ctx, cfg.Mongo, logger)
//	if err != nil {
//		return err
//	}
//	defer src.Close(ctx)
//
//	exp := exporter.NewExporter(logger, nil, exporter.Config{ProgressEvery: 1000})
//	result, err := exp.Export(ctx, src, "/export/waze_incidents.csv")
package exporter
