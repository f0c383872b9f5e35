package iff

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/nation"
)

// RosterSource fetches the rosters used to seed the implicit sets.
type RosterSource interface {
	Nations(ctx context.Context, region string) ([]string, error)
	Officers(ctx context.Context, region string) ([]string, error)
}

// Sources describes where registry entries come from.
type Sources struct {
	Region         string // region being defended
	SpareOfficers  bool   // delegate and officers of Region -> explicit allow
	SpareResidents bool   // current residents of Region -> implicit allow
	AllowNations   []string
	DenyNations    []string
	AllowRegions   []string // residents -> implicit allow
	DenyRegions    []string // residents -> implicit deny

	// Delay is slept after every remote fetch to respect the API rate limit.
	Delay time.Duration
}

// Populate fills b from configuration and remote rosters. Any fetch error
// aborts population; a partially seeded registry is never returned to the
// caller as if it were complete.
func Populate(ctx context.Context, b *Builder, src RosterSource, s Sources, log zerolog.Logger, notify func(string)) error {
	if notify == nil {
		notify = func(string) {}
	}
	region := nation.Canonicalize(s.Region)

	if s.SpareOfficers {
		officers, err := src.Officers(ctx, region)
		if err != nil {
			return fmt.Errorf("failed to access RO list for %s: %w", region, err)
		}
		b.AllowExplicit(officers...)
		log.Debug().Str("region", region).Int("officers", len(officers)).Msg("officers spared")
		if err := pause(ctx, s.Delay); err != nil {
			return err
		}
	}

	if s.SpareResidents {
		notify(fmt.Sprintf("Adding all nations in %s to whitelist", region))
		if err := expand(ctx, src, region, s.Delay, b.AllowImplicit); err != nil {
			return err
		}
	}

	b.AllowExplicit(s.AllowNations...)
	b.DenyExplicit(s.DenyNations...)

	for _, r := range nation.CanonicalizeAll(s.AllowRegions) {
		notify(fmt.Sprintf("Adding all nations in %s to whitelist", r))
		if err := expand(ctx, src, r, s.Delay, b.AllowImplicit); err != nil {
			return err
		}
	}
	for _, r := range nation.CanonicalizeAll(s.DenyRegions) {
		notify(fmt.Sprintf("Adding all nations in %s to blacklist", r))
		if err := expand(ctx, src, r, s.Delay, b.DenyImplicit); err != nil {
			return err
		}
	}

	log.Info().
		Int("explicit_allow", len(b.explicitAllow)).
		Int("implicit_allow", len(b.implicitAllow)).
		Int("explicit_deny", len(b.explicitDeny)).
		Int("implicit_deny", len(b.implicitDeny)).
		Msg("iff populated")
	return nil
}

func expand(ctx context.Context, src RosterSource, region string, delay time.Duration, add func(...string) *Builder) error {
	names, err := src.Nations(ctx, region)
	if err != nil {
		return fmt.Errorf("failed to access nationlist for %s: %w", region, err)
	}
	add(names...)
	return pause(ctx, delay)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
