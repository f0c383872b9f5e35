// Package iff decides whether a newly observed nation is friend or foe.
//
// A Registry holds four name sets plus a policy for names that match none
// of them. Classification is first-match-wins in a fixed order that cannot
// be configured:
//
//  1. explicit allow -> Friendly
//  2. explicit deny  -> Hostile
//  3. implicit deny  -> Hostile
//  4. implicit allow -> Friendly
//  5. default policy -> Hostile (Eliminate) or SparedUnknown (Spare)
//
// A name may sit in several sets at once; precedence resolves it.
package iff

import "github.com/ppiankov/samsite/internal/nation"

// Disposition is the classification of a single nation.
type Disposition int

const (
	Friendly Disposition = iota
	Hostile
	SparedUnknown
)

func (d Disposition) String() string {
	switch d {
	case Friendly:
		return "friendly"
	case Hostile:
		return "hostile"
	case SparedUnknown:
		return "spared_unknown"
	default:
		return "unknown"
	}
}

// Policy is applied to names that match none of the four sets.
type Policy int

const (
	Eliminate Policy = iota
	Spare
)

func (p Policy) String() string {
	if p == Spare {
		return "spare"
	}
	return "eliminate"
}

// Match records which rule produced a disposition.
type Match string

const (
	MatchExplicitAllow Match = "explicit_allow"
	MatchExplicitDeny  Match = "explicit_deny"
	MatchImplicitDeny  Match = "implicit_deny"
	MatchImplicitAllow Match = "implicit_allow"
	MatchDefault       Match = "default"
)

type set map[string]struct{}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

// Registry is immutable once built and safe to share between goroutines.
type Registry struct {
	policy        Policy
	explicitAllow set
	implicitAllow set
	explicitDeny  set
	implicitDeny  set
}

// Counts reports the size of each set.
type Counts struct {
	ExplicitAllow int
	ImplicitAllow int
	ExplicitDeny  int
	ImplicitDeny  int
}

// Classify returns the disposition of name. The name is canonicalized first.
func (r *Registry) Classify(name string) Disposition {
	d, _ := r.Explain(name)
	return d
}

// Explain is Classify plus the rule that matched.
func (r *Registry) Explain(name string) (Disposition, Match) {
	key := nation.Canonicalize(name)
	switch {
	case r.explicitAllow.has(key):
		return Friendly, MatchExplicitAllow
	case r.explicitDeny.has(key):
		return Hostile, MatchExplicitDeny
	case r.implicitDeny.has(key):
		return Hostile, MatchImplicitDeny
	case r.implicitAllow.has(key):
		return Friendly, MatchImplicitAllow
	case r.policy == Eliminate:
		return Hostile, MatchDefault
	default:
		return SparedUnknown, MatchDefault
	}
}

// Policy returns the default policy for unmatched names.
func (r *Registry) Policy() Policy {
	return r.policy
}

// Counts returns the number of names in each set.
func (r *Registry) Counts() Counts {
	return Counts{
		ExplicitAllow: len(r.explicitAllow),
		ImplicitAllow: len(r.implicitAllow),
		ExplicitDeny:  len(r.explicitDeny),
		ImplicitDeny:  len(r.implicitDeny),
	}
}

// Builder accumulates names before producing an immutable Registry.
// It is not safe for concurrent use.
type Builder struct {
	policy        Policy
	explicitAllow set
	implicitAllow set
	explicitDeny  set
	implicitDeny  set
}

// NewBuilder creates an empty builder with the given default policy.
func NewBuilder(policy Policy) *Builder {
	return &Builder{
		policy:        policy,
		explicitAllow: make(set),
		implicitAllow: make(set),
		explicitDeny:  make(set),
		implicitDeny:  make(set),
	}
}

func (b *Builder) AllowExplicit(names ...string) *Builder {
	addAll(b.explicitAllow, names)
	return b
}

func (b *Builder) AllowImplicit(names ...string) *Builder {
	addAll(b.implicitAllow, names)
	return b
}

func (b *Builder) DenyExplicit(names ...string) *Builder {
	addAll(b.explicitDeny, names)
	return b
}

func (b *Builder) DenyImplicit(names ...string) *Builder {
	addAll(b.implicitDeny, names)
	return b
}

// Build copies the accumulated sets into a Registry. The builder may keep
// being used afterwards without affecting the returned Registry.
func (b *Builder) Build() *Registry {
	return &Registry{
		policy:        b.policy,
		explicitAllow: clone(b.explicitAllow),
		implicitAllow: clone(b.implicitAllow),
		explicitDeny:  clone(b.explicitDeny),
		implicitDeny:  clone(b.implicitDeny),
	}
}

func addAll(s set, names []string) {
	for _, n := range names {
		key := nation.Canonicalize(n)
		if key == "" {
			continue
		}
		s[key] = struct{}{}
	}
}

func clone(s set) set {
	out := make(set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
