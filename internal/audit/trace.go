package audit

import "time"

// Trace is the ground-truth structured record of one query's journey
// through every pipeline stage. Exactly one Trace is persisted
// per query, successful or not.
type Trace struct {
	TraceID   string    `json:"trace_id"`
	StartedAt time.Time `json:"started_at"`
	Events    []Event   `json:"events"`
}

// NewTrace starts a fresh Trace for one incoming request.
func NewTrace(traceID string, startedAt time.Time) *Trace {
	return &Trace{TraceID: traceID, StartedAt: startedAt}
}

// Append records an event at its monotonic offset from StartedAt.
func (t *Trace) Append(kind EventKind, data any) {
	t.Events = append(t.Events, Event{
		Kind:     kind,
		OffsetMS: time.Since(t.StartedAt).Milliseconds(),
		Data:     data,
	})
}

// FirstKind returns the kind of the first recorded event, or "" if the
// trace is empty. This must always be
// EventQueryReceived for a persisted trace.
func (t *Trace) FirstKind() EventKind {
	if len(t.Events) == 0 {
		return ""
	}
	return t.Events[0].Kind
}

// LastKind returns the kind of the last recorded event. By the logger's
// invariant, this must always be EventAnswerAssembled or EventError.
func (t *Trace) LastKind() EventKind {
	if len(t.Events) == 0 {
		return ""
	}
	return t.Events[len(t.Events)-1].Kind
}

// HasKind reports whether an event of the given kind was recorded.
func (t *Trace) HasKind(kind EventKind) bool {
	for _, e := range t.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
