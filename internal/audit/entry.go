package audit

// Entry types.
const (
	TypeRunStart   = "run_start"
	TypeEngagement = "engagement"
	TypeRunEnd     = "run_end"
)

// Engagement outcomes.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeTransport = "transport_error"
)

// ClassAbort is the retry class of an engagement that stopped the run.
const ClassAbort = "abort"

// Entry is one line in the hash-chained JSONL audit log. Fields are
// fixed struct fields so json.Marshal output is stable for hashing.
type Entry struct {
	Timestamp string `json:"ts"`
	RunID     string `json:"run_id"`
	Type      string `json:"type"`
	Region    string `json:"region"`
	Target    string `json:"target,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Class     string `json:"class,omitempty"`
	Userclick int64  `json:"userclick,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Splashed  int    `json:"splashed,omitempty"`
	PrevHash  string `json:"prev_hash"`
}
