package gsmon

// eventType describes an event type.
type eventType = string

const (
	eventWarning           eventType = "warning"
	eventAcquired          eventType = "acquired lock"
	eventProbe             eventType = "probe"
	eventRecoveryAttempt   eventType = "recovery attempt"
	eventRecovered         eventType = "recovered"
	eventRecoveryExhausted eventType = "recovery exhausted"
	eventMaintenance       eventType = "maintenance"
	eventConfigModified    eventType = "config modified"
)

// Severity is the log severity of an event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	Severity() Severity
	event()
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string       { return eventWarning }
func (ev *EventWarning) Severity() Severity { return SeverityWarning }
func (ev *EventWarning) event()             {}

// EventAcquired is emitted when the flock (i.e. write lock on the access
// log) is acquired, which is on monitor startup.
type EventAcquired struct{}

func (ev *EventAcquired) Type() string       { return eventAcquired }
func (ev *EventAcquired) Severity() Severity { return SeverityInfo }
func (ev *EventAcquired) event()             {}

// EventProbe is emitted for every reachability probe, both the per-tick
// probe and the re-probes inside a recovery episode.
type EventProbe struct {
	Endpoint  string  `json:"endpoint"`
	Reachable bool    `json:"reachable"`
	LatencyMS float64 `json:"latency_ms"`
	Reason    string  `json:"reason,omitempty"`
	Detail    string  `json:"detail,omitempty"`
}

func (ev *EventProbe) Type() string { return eventProbe }

func (ev *EventProbe) Severity() Severity {
	if ev.Reachable {
		return SeverityInfo
	}
	return SeverityError
}

func (ev *EventProbe) event() {}

// EventRecoveryAttempt is emitted after each restore-then-reprobe attempt
// within a recovery episode.
type EventRecoveryAttempt struct {
	Episode  string `json:"episode"`
	Seq      int    `json:"seq"`
	Max      int    `json:"max"`
	Restored bool   `json:"restored"`
}

func (ev *EventRecoveryAttempt) Type() string       { return eventRecoveryAttempt }
func (ev *EventRecoveryAttempt) Severity() Severity { return SeverityWarning }
func (ev *EventRecoveryAttempt) event()             {}

// EventRecovered is emitted when a recovery episode resolves with the
// endpoint reachable again. Attempts is 0 if the triggering probe result
// was already fine.
type EventRecovered struct {
	Episode  string `json:"episode"`
	Attempts int    `json:"attempts"`
}

func (ev *EventRecovered) Type() string       { return eventRecovered }
func (ev *EventRecovered) Severity() Severity { return SeverityInfo }
func (ev *EventRecovered) event()             {}

// EventRecoveryExhausted is emitted when all retries of a recovery episode
// failed. The monitor loop keeps running regardless.
type EventRecoveryExhausted struct {
	Episode  string `json:"episode"`
	Attempts int    `json:"attempts"`
}

func (ev *EventRecoveryExhausted) Type() string       { return eventRecoveryExhausted }
func (ev *EventRecoveryExhausted) Severity() Severity { return SeverityCritical }
func (ev *EventRecoveryExhausted) event()             {}

// EventMaintenance is emitted once per maintenance task per cycle.
type EventMaintenance struct {
	Task   string `json:"task"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (ev *EventMaintenance) Type() string { return eventMaintenance }

func (ev *EventMaintenance) Severity() Severity {
	switch MaintenanceStatus(ev.Status) {
	case MaintenanceOK:
		return SeverityInfo
	case MaintenanceWarning:
		return SeverityWarning
	default:
		return SeverityError
	}
}

func (ev *EventMaintenance) event() {}

// EventConfigModified is emitted when the configuration file is modified on
// disk while the monitor is running. The running configuration is immutable
// for the lifetime of the run, so this is a restart hint for the operator.
type EventConfigModified struct {
	Path string         `json:"path"`
	Op   ConfigModifyOp `json:"op"`
}

// ConfigModifyOp contains possible on-disk operations observed on the
// configuration file.
type ConfigModifyOp string

const (
	ConfigModifyUpdate ConfigModifyOp = "update"
	ConfigModifyRemove ConfigModifyOp = "remove"
)

func (ev *EventConfigModified) Type() string       { return eventConfigModified }
func (ev *EventConfigModified) Severity() Severity { return SeverityWarning }
func (ev *EventConfigModified) event()             {}
