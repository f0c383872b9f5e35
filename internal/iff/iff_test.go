package iff

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestExplicitAllowBeatsImplicitDeny(t *testing.T) {
	r := NewBuilder(Eliminate).
		AllowExplicit("Good Guy").
		DenyImplicit("good_guy").
		Build()

	if got := r.Classify("good_guy"); got != Friendly {
		t.Fatalf("expected Friendly, got %s", got)
	}
}

func TestExplicitDenyBeatsImplicitAllow(t *testing.T) {
	r := NewBuilder(Spare).
		DenyExplicit("bad_guy").
		AllowImplicit("Bad Guy").
		Build()

	if got := r.Classify("Bad Guy"); got != Hostile {
		t.Fatalf("expected Hostile, got %s", got)
	}
}

func TestExplicitAllowBeatsExplicitDeny(t *testing.T) {
	r := NewBuilder(Eliminate).
		AllowExplicit("both").
		DenyExplicit("both").
		Build()

	d, m := r.Explain("both")
	if d != Friendly || m != MatchExplicitAllow {
		t.Fatalf("expected Friendly via explicit allow, got %s via %s", d, m)
	}
}

func TestImplicitDenyBeatsImplicitAllow(t *testing.T) {
	r := NewBuilder(Spare).
		AllowImplicit("drifter").
		DenyImplicit("drifter").
		Build()

	d, m := r.Explain("drifter")
	if d != Hostile || m != MatchImplicitDeny {
		t.Fatalf("expected Hostile via implicit deny, got %s via %s", d, m)
	}
}

func TestDefaultPolicy(t *testing.T) {
	tests := []struct {
		policy Policy
		want   Disposition
	}{
		{Eliminate, Hostile},
		{Spare, SparedUnknown},
	}
	for _, tt := range tests {
		r := NewBuilder(tt.policy).AllowExplicit("someone_else").Build()
		d, m := r.Explain("stranger")
		if d != tt.want {
			t.Errorf("policy %s: expected %s, got %s", tt.policy, tt.want, d)
		}
		if m != MatchDefault {
			t.Errorf("policy %s: expected default match, got %s", tt.policy, m)
		}
	}
}

func TestBuildIsolatesRegistry(t *testing.T) {
	b := NewBuilder(Spare)
	r := b.Build()
	b.DenyExplicit("late_addition")

	if got := r.Classify("late_addition"); got != SparedUnknown {
		t.Fatalf("registry changed after Build: %s", got)
	}
}

func TestCounts(t *testing.T) {
	r := NewBuilder(Eliminate).
		AllowExplicit("a", "A", "b").
		AllowImplicit("c").
		DenyExplicit("d", "").
		DenyImplicit("e", "f").
		Build()

	c := r.Counts()
	if c.ExplicitAllow != 2 || c.ImplicitAllow != 1 || c.ExplicitDeny != 1 || c.ImplicitDeny != 2 {
		t.Fatalf("unexpected counts: %+v", c)
	}
}

type fakeRosters struct {
	nations  map[string][]string
	officers map[string][]string
	err      error
	calls    []string
}

func (f *fakeRosters) Nations(ctx context.Context, region string) ([]string, error) {
	f.calls = append(f.calls, "nations:"+region)
	if f.err != nil {
		return nil, f.err
	}
	return f.nations[region], nil
}

func (f *fakeRosters) Officers(ctx context.Context, region string) ([]string, error) {
	f.calls = append(f.calls, "officers:"+region)
	if f.err != nil {
		return nil, f.err
	}
	return f.officers[region], nil
}

func TestPopulate(t *testing.T) {
	src := &fakeRosters{
		nations: map[string][]string{
			"home":    {"resident_one", "resident_two"},
			"allies":  {"ally"},
			"raiders": {"raider", "resident_two"},
		},
		officers: map[string][]string{
			"home": {"delegate", "officer"},
		},
	}

	b := NewBuilder(Eliminate)
	err := Populate(context.Background(), b, src, Sources{
		Region:         "Home",
		SpareOfficers:  true,
		SpareResidents: true,
		AllowNations:   []string{"Friend"},
		DenyNations:    []string{"officer"},
		AllowRegions:   []string{"Allies"},
		DenyRegions:    []string{"raiders"},
	}, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	r := b.Build()

	cases := map[string]Disposition{
		"delegate":     Friendly, // officer roster -> explicit allow
		"officer":      Friendly, // explicit allow wins over explicit deny
		"resident_one": Friendly,
		"resident_two": Hostile, // implicit deny wins over implicit allow
		"friend":       Friendly,
		"ally":         Friendly,
		"raider":       Hostile,
		"nobody":       Hostile,
	}
	for name, want := range cases {
		if got := r.Classify(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}

	if len(src.calls) != 4 {
		t.Fatalf("expected 4 roster fetches, got %v", src.calls)
	}
}

func TestPopulateSkipsDisabledRosters(t *testing.T) {
	src := &fakeRosters{}
	if err := Populate(context.Background(), NewBuilder(Spare), src, Sources{Region: "home"}, zerolog.Nop(), nil); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if len(src.calls) != 0 {
		t.Fatalf("expected no fetches, got %v", src.calls)
	}
}

func TestPopulatePropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeRosters{err: boom}
	err := Populate(context.Background(), NewBuilder(Spare), src, Sources{Region: "home", SpareOfficers: true}, zerolog.Nop(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}
