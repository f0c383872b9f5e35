package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// TailFilter selects entries for Tail.
type TailFilter struct {
	RunID string // empty selects the most recent run
	Last  int    // zero keeps every matching entry
}

// TailSummary counts engagement outcomes in a run.
type TailSummary struct {
	Engagements    int    `json:"engagements"`
	Hits           int    `json:"hits"`
	Misses         int    `json:"misses"`
	TransportFails int    `json:"transport_fails"`
	Aborts         int    `json:"aborts"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// TailResult holds the selected entries of one run.
type TailResult struct {
	RunID   string      `json:"run_id"`
	Region  string      `json:"region"`
	Entries []Entry     `json:"entries"`
	Summary TailSummary `json:"summary"`
}

// Tail reads the log and returns the entries of one run. Malformed lines
// are skipped; use Verify to check integrity.
func Tail(path string, filter TailFilter) (*TailResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var all []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		all = append(all, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	runID := filter.RunID
	if runID == "" && len(all) > 0 {
		runID = all[len(all)-1].RunID
	}

	result := &TailResult{RunID: runID}
	for _, entry := range all {
		if entry.RunID != runID {
			continue
		}
		if result.Region == "" {
			result.Region = entry.Region
		}
		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}
	if filter.Last > 0 && len(result.Entries) > filter.Last {
		result.Entries = result.Entries[len(result.Entries)-filter.Last:]
	}
	return result, nil
}

func updateSummary(s *TailSummary, entry Entry) {
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp

	if entry.Type != TypeEngagement {
		return
	}
	s.Engagements++
	switch entry.Outcome {
	case OutcomeHit:
		s.Hits++
	case OutcomeMiss:
		s.Misses++
	case OutcomeTransport:
		s.TransportFails++
	}
	if entry.Class == ClassAbort {
		s.Aborts++
	}
}
