package logging

// Event types for structured logging.
// These constants define the event names used in JSONL traces.
const (
	// Run lifecycle
	EventRunStart   = "run.start"
	EventRunEnd     = "run.end"
	EventRunSummary = "run.summary"

	// Store events
	EventStoreLoad    = "store.load"
	EventStoreSave    = "store.save"
	EventStoreCorrupt = "store.corrupt"

	// Sample and model events
	EventSampleRecord = "sample.record"
	EventModelUpdate  = "model.update"
	EventLimitSolve   = "limit.solve"
	EventLimitClamp   = "limit.clamp"

	// Override events
	EventOverrideSet     = "override.set"
	EventOverrideExpired = "override.expired"
	EventOverrideStale   = "override.stale"

	// Calibration events
	EventCalibrate = "calibrate"
	EventFallback  = "calibrate.fallback"

	// Window maintenance
	EventWindowPrune = "window.prune"
	EventWindowReset = "window.reset"

	// Monitor events
	EventMonitorTick   = "monitor.tick"
	EventMonitorWake   = "monitor.wake"
	EventMonitorOutput = "monitor.output"

	// Error events
	EventError = "error"
)
