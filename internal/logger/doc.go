// Package logger builds the zap loggers used across echoload.
//
// # Basic Usage
//
//	log, err := logger.New("info", "console")
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = log.Sync() }()
//
// # Formats
//
//   - console: human-readable lines, the default for interactive runs
//   - json: one JSON object per line, for CI pipelines and log shippers
//
// # Levels
//
// debug, info, warn and error. Non-200 diagnostics from the echo task are
// emitted at warn, so "--log-level error" silences them.
package logger
