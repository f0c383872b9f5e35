package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/samsite/internal/control"
	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/missile"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return New(&out, strings.NewReader(input), false), &out
}

func TestTaggedLines(t *testing.T) {
	c, out := newTestConsole("")
	c.Infof("loaded %d", 3)
	c.Warnf("careful")
	c.Errorf("broken")
	c.Successf("done")
	c.Readyf("waiting")
	c.Indent("detail")

	want := "\r[INF] loaded 3\n\r[WRN] careful\n\r[ERR] broken\n\r[SCS] done\n\r[RDY] waiting\n      detail\n"
	if out.String() != want {
		t.Fatalf("got %q\nwant %q", out.String(), want)
	}
}

func TestTerminalLinesEndInCRLF(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, strings.NewReader(""), true)
	c.Infof("x")
	if !strings.HasSuffix(out.String(), "x\r\n") {
		t.Fatalf("got %q", out.String())
	}
}

func TestDetectedTags(t *testing.T) {
	tests := []struct {
		d    iff.Disposition
		m    iff.Match
		want string
	}{
		{iff.Friendly, iff.MatchExplicitAllow, "[FRN] INBOUND FRIENDLY: ALLY"},
		{iff.Hostile, iff.MatchExplicitDeny, "[BND] HOSTILE BANDIT: ALLY"},
		{iff.Hostile, iff.MatchDefault, "[BGY] INBOUND BOGEY: ALLY ; LAUNCH AUTHORIZED"},
		{iff.SparedUnknown, iff.MatchDefault, "[BGY] INBOUND BOGEY: ALLY ; LAUNCH NOT AUTHORIZED"},
	}
	for _, tt := range tests {
		c, out := newTestConsole("")
		c.Detected("ally", tt.d, tt.m)
		if !strings.Contains(out.String(), tt.want) {
			t.Errorf("%s/%s: got %q, want %q", tt.d, tt.m, out.String(), tt.want)
		}
	}
}

func TestReportsCanonicalizeNames(t *testing.T) {
	c, out := newTestConsole("")
	c.Detected("Some Nation", iff.Hostile, iff.MatchExplicitDeny)
	c.Locked("Some Nation")

	got := out.String()
	for _, want := range []string{"HOSTILE BANDIT: SOME_NATION", "LOCKED ON -=[ SOME_NATION ]=-"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestEngagementReports(t *testing.T) {
	c, out := newTestConsole("")
	c.Locked("bandit")
	c.Hit("bandit")
	c.Missed("foo", missile.Result{Reason: missile.NoInfluence})
	c.Missed("bar", missile.Result{Reason: missile.TooFast})
	c.Missed("baz", missile.Result{Reason: missile.Unknown, Detail: "odd text"})
	c.Aborted("qux", missile.Result{Reason: missile.NotAllowed})
	c.TransportError("bandit", errors.New("reset"))
	c.Refreshed()

	got := out.String()
	for _, want := range []string{
		"LOCKED ON -=[ BANDIT ]=-",
		"BANDIT DOWNED",
		"NO HIT ON FOO (no_influence); TARGET NOT VALID",
		"NO HIT ON BAR (too_fast); REACQUIRING",
		"      odd text",
		"lost officer permissions",
		"No response engaging BANDIT: reset",
		"HOLD FIRE",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestSummaryAndCounts(t *testing.T) {
	c, out := newTestConsole("")
	c.Summary(control.Summary{Splashed: 2, Attempts: 5, Reason: "region updated"})
	c.Counts(iff.Counts{ExplicitAllow: 1, ExplicitDeny: 2, ImplicitAllow: 3, ImplicitDeny: 4})

	got := out.String()
	for _, want := range []string{"Stopped: region updated", "5 engagements, 2 splashed", "explicit deny:  2", "implicit allow: 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestAsk(t *testing.T) {
	c, _ := newTestConsole("  Main Nation \nsecond")
	got, err := c.Ask("Main nation:")
	if err != nil || got != "Main Nation" {
		t.Fatalf("Ask = %q, %v", got, err)
	}
	got, err = c.Ask("Next:")
	if err != nil || got != "second" {
		t.Fatalf("Ask without newline = %q, %v", got, err)
	}
	if _, err := c.Ask("Empty:"); err == nil {
		t.Fatal("expected error at end of input")
	}
}

func TestPasswordFallsBackWithoutTerminal(t *testing.T) {
	c, _ := newTestConsole("hunter2\n")
	got, err := c.Password("Password:")
	if err != nil || got != "hunter2" {
		t.Fatalf("Password = %q, %v", got, err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"\n", true, true},
		{"\n", false, false},
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"maybe\n", true, false},
	}
	for _, tt := range tests {
		c, _ := newTestConsole(tt.input)
		got, err := c.Confirm("Proceed?", tt.def)
		if err != nil || got != tt.want {
			t.Errorf("Confirm(%q, %v) = %v, %v", tt.input, tt.def, got, err)
		}
	}
}
