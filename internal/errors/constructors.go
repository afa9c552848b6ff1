package errors

import "fmt"

// Error codes shared with callers that branch on them.
const (
	CodeSnapshotUnavailable = "snapshot_unavailable"
	CodeSnapshotInactive    = "snapshot_inactive"
	CodeSnapshotMalformed   = "snapshot_malformed"
	CodeInvalidPercentage   = "invalid_percentage"
	CodeInvalidWindowKey    = "invalid_window_key"
	CodeInvalidInput        = "invalid_input"
)

// StoreLoadFailed creates an error for when the calibration store cannot be read.
func StoreLoadFailed(path string, cause error) *UsageError {
	return &UsageError{
		Category:  CategoryStore,
		Code:      "store_load_failed",
		Message:   fmt.Sprintf("failed to read calibration store %q", path),
		Retryable: true,
		Cause:     cause,
	}
}

// StoreSaveFailed creates an error for when the calibration store cannot be written.
func StoreSaveFailed(path string, cause error) *UsageError {
	return &UsageError{
		Category:  CategoryStore,
		Code:      "store_save_failed",
		Message:   fmt.Sprintf("failed to write calibration store %q", path),
		Retryable: true,
		Cause:     cause,
	}
}

// SnapshotUnavailable creates an error for when the usage snapshot file is missing or unreadable.
func SnapshotUnavailable(path string, cause error) *UsageError {
	return &UsageError{
		Category:  CategoryUsage,
		Code:      CodeSnapshotUnavailable,
		Message:   fmt.Sprintf("usage snapshot %q is unavailable", path),
		Retryable: true,
		Cause:     cause,
	}
}

// SnapshotInactive creates an error for when the aggregator reports no active session.
func SnapshotInactive(status string) *UsageError {
	return &UsageError{
		Category:  CategoryUsage,
		Code:      CodeSnapshotInactive,
		Message:   fmt.Sprintf("no active monitor data (status %q)", status),
		Retryable: true,
	}
}

// SnapshotMalformed creates an error for when a required snapshot field is missing.
func SnapshotMalformed(field string) *UsageError {
	return &UsageError{
		Category:  CategoryUsage,
		Code:      CodeSnapshotMalformed,
		Message:   fmt.Sprintf("usage snapshot is missing %q", field),
		Retryable: false,
	}
}

// InvalidPercentage creates an error for a ground-truth value outside [0,100].
func InvalidPercentage(name string, value float64) *UsageError {
	return &UsageError{
		Category:  CategoryInput,
		Code:      CodeInvalidPercentage,
		Message:   fmt.Sprintf("invalid %s value: %g%% (expected 0-100)", name, value),
		Retryable: false,
	}
}

// InvalidWindowKey creates an error for an unknown or unparsable window key.
func InvalidWindowKey(key string) *UsageError {
	return &UsageError{
		Category:  CategoryCalibration,
		Code:      CodeInvalidWindowKey,
		Message:   fmt.Sprintf("window %q does not exist", key),
		Retryable: false,
	}
}

// InvalidInput creates an error for any other rejected user-supplied argument.
func InvalidInput(name, reason string) *UsageError {
	return &UsageError{
		Category:  CategoryInput,
		Code:      CodeInvalidInput,
		Message:   fmt.Sprintf("invalid %s: %s", name, reason),
		Retryable: false,
	}
}

// ConfigLoadFailed creates an error for when configuration loading fails.
func ConfigLoadFailed(path string, cause error) *UsageError {
	return &UsageError{
		Category:  CategoryConfig,
		Code:      "config_load_failed",
		Message:   fmt.Sprintf("failed to load config from %q", path),
		Retryable: false,
		Cause:     cause,
	}
}

// ConfigInvalid creates an error for a configuration value that fails validation.
func ConfigInvalid(field, reason string) *UsageError {
	return &UsageError{
		Category:  CategoryConfig,
		Code:      "config_invalid",
		Message:   fmt.Sprintf("invalid config %s: %s", field, reason),
		Retryable: false,
	}
}

// MetricsExportFailed creates an error for when the metrics textfile cannot be written.
func MetricsExportFailed(path string, cause error) *UsageError {
	return &UsageError{
		Category:  CategoryMetrics,
		Code:      "metrics_export_failed",
		Message:   fmt.Sprintf("failed to export metrics to %q", path),
		Retryable: true,
		Cause:     cause,
	}
}
