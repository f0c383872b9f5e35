package engine

import (
	"github.com/ppiankov/samsite/internal/audit"
	"github.com/ppiankov/samsite/internal/control"
)

// AuditRecorder appends control loop outcomes to an audit log.
type AuditRecorder struct {
	Log *audit.Log
}

// Record implements control.Recorder.
func (a AuditRecorder) Record(o control.Outcome) error {
	return a.Log.Record(EngagementEntry(o))
}

// EngagementEntry converts an outcome into an audit entry.
func EngagementEntry(o control.Outcome) audit.Entry {
	e := audit.Entry{
		Type:      audit.TypeEngagement,
		Target:    o.Target,
		Userclick: o.Userclick,
	}
	if !o.At.IsZero() {
		e.Timestamp = o.At.UTC().Format(audit.TimestampFormat)
	}

	switch {
	case o.Err != nil:
		e.Outcome = audit.OutcomeTransport
		e.Detail = o.Err.Error()
	case o.Result.Success:
		e.Outcome = audit.OutcomeHit
	default:
		e.Outcome = audit.OutcomeMiss
		e.Reason = o.Result.Reason.String()
		e.Class = o.Result.Class().String()
		e.Detail = o.Result.Detail
	}
	return e
}

// RunStarted records the start of a run.
func RunStarted(l *audit.Log) error {
	return l.Record(audit.Entry{Type: audit.TypeRunStart})
}

// RunEnded records the end of a run.
func RunEnded(l *audit.Log, s control.Summary) error {
	return l.Record(audit.Entry{Type: audit.TypeRunEnd, Reason: s.Reason, Splashed: s.Splashed})
}
