package console

import (
	"fmt"

	"github.com/ppiankov/samsite/internal/control"
	"github.com/ppiankov/samsite/internal/iff"
	"github.com/ppiankov/samsite/internal/missile"
	"github.com/ppiankov/samsite/internal/nation"
)

// Detected reports a newly arrived nation.
func (c *Console) Detected(name string, d iff.Disposition, m iff.Match) {
	switch {
	case d == iff.Friendly:
		c.line(c.green, "FRN", "INBOUND FRIENDLY: "+nation.Display(name))
	case d == iff.SparedUnknown:
		c.line(c.yellow, "BGY", fmt.Sprintf("INBOUND BOGEY: %s ; LAUNCH %s AUTHORIZED", nation.Display(name), c.bold.Sprint("NOT")))
	case m == iff.MatchDefault:
		c.line(c.yellow, "BGY", fmt.Sprintf("INBOUND BOGEY: %s ; LAUNCH %s", nation.Display(name), c.bold.Sprint("AUTHORIZED")))
	default:
		c.line(c.red, "BND", "HOSTILE BANDIT: "+nation.Display(name))
	}
}

// Locked reports the selected target while waiting for authorization.
func (c *Console) Locked(target string) {
	c.line(c.red, "LCK", fmt.Sprintf("LOCKED ON -=[ %s ]=- ; AWAITING AUTHORIZATION", nation.Display(target)))
}

// Hit reports a successful ban.
func (c *Console) Hit(target string) {
	c.line(c.green, "HIT", fmt.Sprintf("BIRD AWAY; %s DOWNED", nation.Display(target)))
}

// Missed reports a failed engagement and what happens next.
func (c *Console) Missed(target string, res missile.Result) {
	next := "REACQUIRING"
	if res.Class() == missile.SkipPermanently {
		next = "TARGET NOT VALID FOR ENGAGEMENT"
	}
	c.line(c.red, "LOS", fmt.Sprintf("NO HIT ON %s (%s); %s", nation.Display(target), res.Reason, next))
	if res.Reason == missile.Unknown && res.Detail != "" {
		c.Indent(res.Detail)
	}
}

// Aborted reports an engagement failure that stops the run.
func (c *Console) Aborted(target string, res missile.Result) {
	c.line(c.red, "LOS", fmt.Sprintf("NO HIT ON %s (%s)", nation.Display(target), res.Reason))
	c.Errorf("Engagement halted: the region no longer accepts bans from this nation.")
	c.Indent("This is almost always external, such as lost officer permissions, and not a fault in samsite.")
}

// TransportError reports an engagement that got no usable response.
func (c *Console) TransportError(target string, err error) {
	c.Errorf("No response engaging %s: %v. Continuing.", nation.Display(target), err)
}

// Refreshed reports that the region updated.
func (c *Console) Refreshed() {
	c.Infof("HOLD FIRE; REGION HAS UPDATED")
}

// Summary prints the end-of-run tally.
func (c *Console) Summary(s control.Summary) {
	if s.Reason != "" {
		c.Infof("Stopped: %s", s.Reason)
	}
	c.Infof("%d engagements, %d splashed", s.Attempts, s.Splashed)
}

// Counts prints the IFF set sizes.
func (c *Console) Counts(n iff.Counts) {
	c.Infof("IFF system initialized")
	c.Indent(fmt.Sprintf("explicit allow: %d", n.ExplicitAllow))
	c.Indent(fmt.Sprintf("explicit deny:  %d", n.ExplicitDeny))
	c.Indent(fmt.Sprintf("implicit allow: %d", n.ImplicitAllow))
	c.Indent(fmt.Sprintf("implicit deny:  %d", n.ImplicitDeny))
}
