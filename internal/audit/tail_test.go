package audit

import (
	"path/filepath"
	"strings"
	"testing"
)

func writeRuns(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engagements.jsonl")

	first, err := Open(path, "run-a", "home")
	if err != nil {
		t.Fatal(err)
	}
	first.Record(Entry{Type: TypeRunStart})
	first.Record(Entry{Type: TypeEngagement, Target: "old", Outcome: OutcomeHit})
	first.Close()

	second, err := Open(path, "run-b", "home")
	if err != nil {
		t.Fatal(err)
	}
	second.Record(Entry{Type: TypeRunStart})
	second.Record(Entry{Type: TypeEngagement, Target: "bandit", Outcome: OutcomeHit, Userclick: 1})
	second.Record(Entry{Type: TypeEngagement, Target: "foo", Outcome: OutcomeMiss, Reason: "no_influence", Class: "skip", Userclick: 2})
	second.Record(Entry{Type: TypeEngagement, Target: "bar", Outcome: OutcomeTransport, Userclick: 3})
	second.Record(Entry{Type: TypeEngagement, Target: "baz", Outcome: OutcomeMiss, Reason: "not_allowed", Class: ClassAbort, Userclick: 4})
	second.Record(Entry{Type: TypeRunEnd, Reason: "engagement aborted", Splashed: 1})
	second.Close()
	return path
}

func TestTailDefaultsToLatestRun(t *testing.T) {
	path := writeRuns(t)

	result, err := Tail(path, TailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if result.RunID != "run-b" || result.Region != "home" {
		t.Fatalf("run=%q region=%q", result.RunID, result.Region)
	}
	if len(result.Entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(result.Entries))
	}
	s := result.Summary
	if s.Engagements != 4 || s.Hits != 1 || s.Misses != 2 || s.TransportFails != 1 || s.Aborts != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestTailByRunAndLast(t *testing.T) {
	path := writeRuns(t)

	result, err := Tail(path, TailFilter{RunID: "run-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 2 || result.Summary.Hits != 1 {
		t.Fatalf("unexpected run-a result %+v", result)
	}

	result, err = Tail(path, TailFilter{Last: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 2 || result.Entries[1].Type != TypeRunEnd {
		t.Fatalf("unexpected last-2 entries %+v", result.Entries)
	}
	if result.Summary.Engagements != 4 {
		t.Fatal("summary must cover the whole run, not just the tail")
	}
}

func TestTailMissingFile(t *testing.T) {
	if _, err := Tail(filepath.Join(t.TempDir(), "nope.jsonl"), TailFilter{}); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestFormatTimeline(t *testing.T) {
	result, err := Tail(writeRuns(t), TailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	out := FormatTimeline(result)

	for _, want := range []string{"Run: run-b", "Region: HOME", "BANDIT", "MISS no_influence", "run ended: engagement aborted (1 splashed)", "4 engagements", "1 abort"} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&TailResult{RunID: "x"})
	if !strings.Contains(out, "No entries found") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFormatJSON(t *testing.T) {
	result, err := Tail(writeRuns(t), TailFilter{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"run_id": "run-b"`) {
		t.Fatalf("unexpected json %s", out)
	}
}
