package logger

// Component name constants for standardized logging
const (
	// Core components
	ComponentSupervisor = "Supervisor"
	ComponentTrigger    = "Trigger"
	ComponentClassifier = "Classifier"

	// Service components
	ComponentRunner     = "Runner"
	ComponentDisplay    = "Display"
	ComponentFilesystem = "Filesystem"

	// State stores
	ComponentRetryStore    = "RetryStore"
	ComponentTrackingStore = "TrackingStore"
	ComponentStatusStore   = "StatusStore"

	// Terminal actions and ancillary servers
	ComponentPower     = "Power"
	ComponentStatusAPI = "StatusAPI"
	ComponentConfig    = "Config"
)
