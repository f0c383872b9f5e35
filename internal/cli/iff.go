package cli

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ppiankov/samsite/internal/config"
	"github.com/ppiankov/samsite/internal/console"
	"github.com/ppiankov/samsite/internal/iff"
)

// buildRegistry fills the IFF sets for region from config and the
// region's rosters.
func buildRegistry(ctx context.Context, cfg *config.Config, src iff.RosterSource, region string, con *console.Console, log zerolog.Logger) (*iff.Registry, error) {
	con.Infof("Initializing IFF system, please wait...")
	s := cfg.Settings
	b := iff.NewBuilder(s.Policy())
	err := iff.Populate(ctx, b, src, iff.Sources{
		Region:         region,
		SpareOfficers:  s.IgnoreROs,
		SpareResidents: s.IgnoreResidents,
		AllowNations:   cfg.Whitelist.Nations,
		DenyNations:    cfg.Blacklist.Nations,
		AllowRegions:   cfg.Whitelist.Regions,
		DenyRegions:    cfg.Blacklist.Regions,
		Delay:          s.Delay(),
	}, log.With().Str("component", "iff").Logger(), func(msg string) { con.Infof("%s", msg) })
	if err != nil {
		return nil, err
	}
	registry := b.Build()
	con.Counts(registry.Counts())
	return registry, nil
}
