package model

// JobStatus is the lifecycle state of one scan job. Transitions are
// monotonic: once Done or Error, a job never changes again.
type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventResult   EventKind = "result"
	EventError    EventKind = "error"
)

// Event is one entry in a job's append-only log. Insertion order is the
// only meaningful order; a log holds at most one result or error event,
// always as its last element.
type Event struct {
	Kind     EventKind   `json:"type"`
	Stage    string      `json:"stage,omitempty"`
	Progress int         `json:"progress,omitempty"`
	Result   *ScanResult `json:"result,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// Terminal reports whether the event closes its job's log.
func (e Event) Terminal() bool {
	return e.Kind == EventResult || e.Kind == EventError
}

// Job is one asynchronous pipeline execution for one uploaded image. It is
// mutated only by the background execution that owns it; observers receive
// copies via the registry's cursor API.
type Job struct {
	ID     string
	Status JobStatus
	Events []Event
}
