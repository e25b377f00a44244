// Package config provides centralized configuration management for the
// exporter and reporter binaries.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML file (WAZECLI_CONFIG, config.yaml or configs/config.yaml)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
//	MONGO_URI=mongodb://localhost:27017/
//	DB_NAME=waze_data
//	COLLECTION_NAME=waze_events
//	EXPORT_OUTPUT_PATH=/export/waze_incidents.csv
//	REPORT_INPUT_DIR=/data/processed
//	REPORT_OUTPUT_DIR=./analysis_results
//	LOG_LEVEL=info
//	TELEMETRY_TRACE_EXPORTER=none
//
// # Path Management
//
// ResultPaths captures the directory convention of the batch job output
// (clean_incidents/part-m-00000, type_analysis/part-r-00000, ...) and
// ReportPaths the fixed artifact names written by the reporter:
//
//	in := config.NewResultPaths(cfg.Report.InputDir)
//	out := config.NewReportPaths(cfg.Report.OutputDir, cfg.Report.SummaryFile)
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator
// struct tags.
package config
