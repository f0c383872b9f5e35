package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ppiankov/samsite/internal/audit"
	"github.com/ppiankov/samsite/internal/config"
	"github.com/ppiankov/samsite/internal/console"
	"github.com/ppiankov/samsite/internal/control"
	"github.com/ppiankov/samsite/internal/engine"
	"github.com/ppiankov/samsite/internal/killswitch"
	"github.com/ppiankov/samsite/internal/missile"
	"github.com/ppiankov/samsite/internal/nation"
	"github.com/ppiankov/samsite/internal/radar"
	"github.com/ppiankov/samsite/internal/trigger"
)

// passwordEnv supplies the RO password without a prompt.
const passwordEnv = "SAMSITE_PASSWORD"

var (
	runMain string
	runRO   string
	runYes  bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runMain, "main", "", "Operator's main nation (prompted if empty)")
	runCmd.Flags().StringVar(&runRO, "ro", "", "Regional officer nation that performs bans (prompted if empty)")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip the activation confirmation")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Defend the region",
	Long: "Logs in as the regional officer nation, builds the IFF system, and\n" +
		"watches the region. Hostile arrivals are queued; each ban is sent only\n" +
		"after the operator authorizes it (space bar, or `samsite fire` in file\n" +
		"trigger mode). The password may be given in " + passwordEnv + ".",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	con := newConsole(cmd)
	cfg, err := loadConfig(con)
	if err != nil {
		return err
	}
	con.Infof("Loaded configuration")

	log, closer, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	mainNation, err := askIfEmpty(con, runMain, "Main nation:")
	if err != nil {
		return err
	}
	if nation.Canonicalize(mainNation) == "" {
		con.Errorf("Main nation is required")
		return errors.New("main nation is required")
	}
	ro, err := askIfEmpty(con, runRO, "Regional officer nation:")
	if err != nil {
		return err
	}
	password := os.Getenv(passwordEnv)
	if password == "" {
		if password, err = con.Password("Password for " + nation.Display(nation.Canonicalize(ro)) + ":"); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	client := newClient(mainNation, log)

	con.Infof("Initializing SAM site, please wait...")
	sess, err := missile.Create(ctx, client, client, ro, log.With().Str("component", "missile").Logger())
	if err != nil {
		return err
	}
	if cfg.Settings.RegionOverride != "" {
		sess.OverrideRegion(cfg.Settings.RegionOverride)
		con.Warnf("REGION OVERRIDE ENABLED")
	}
	printSettings(con, cfg, mainNation, ro, sess.Region())

	registry, err := buildRegistry(ctx, cfg, client, sess.Region(), con, log)
	if err != nil {
		return err
	}

	if !runYes {
		ok, err := con.Confirm("Activate SAM site?", true)
		if err != nil {
			return err
		}
		if !ok {
			con.Infof("Aborting startup at operator request")
			return nil
		}
	}

	if err := sess.Authenticate(ctx, client, ro, password); err != nil {
		con.Errorf("Login failed for %s", nation.Display(nation.Canonicalize(ro)))
		return err
	}

	sw := killswitch.New()
	stopSignals := killswitch.InstallInterruptHandler(sw, func() { con.Infof("Interrupt received; standing down") })
	defer stopSignals()

	pulses, hint, closePulses, err := openPulses(cfg, sw)
	if err != nil {
		return err
	}
	defer closePulses()

	con.Readyf("SAM site initialized. %s to arm missiles.", hint)
	if armed, err := arm(ctx, sess, pulses, sw); err != nil || !armed {
		if err == nil {
			con.Infof("Disarmed at operator request")
		}
		return err
	}
	con.Successf("Missiles armed.")

	recorder, finish, err := openAudit(cfg, sess.Region(), log)
	if err != nil {
		return err
	}

	con.Successf("Radar online. %s to authorize each launch.", hint)
	summary, runErr := engine.Run(ctx, radar.Config{
		Region:       sess.Region(),
		Filter:       cfg.Settings.Filter(),
		StopOnUpdate: cfg.Settings.StopOnUpdate,
		Delay:        cfg.Settings.Delay(),
		Jitter:       cfg.Settings.JitterDuration(),
	}, engine.Deps{
		Reader:   client,
		Registry: registry,
		Engager:  sess,
		Pulses:   pulses,
		Switch:   sw,
		Observer: con,
		Reporter: con,
		Recorder: recorder,
		Log:      log,
	})
	finish(summary)

	if runErr != nil {
		con.Errorf("Run stopped on error: %v", runErr)
	}
	con.Summary(summary)
	return runErr
}

func askIfEmpty(con *console.Console, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return con.Ask(prompt)
}

func printSettings(con *console.Console, cfg *config.Config, mainNation, ro, region string) {
	s := cfg.Settings
	con.Blank()
	con.Infof("SETTINGS:")
	con.Indent(fmt.Sprintf("Main nation:       %s", nation.Display(nation.Canonicalize(mainNation))))
	con.Indent(fmt.Sprintf("Officer nation:    %s", nation.Display(nation.Canonicalize(ro))))
	con.Indent(fmt.Sprintf("Region:            %s", nation.Display(region)))
	con.Indent(fmt.Sprintf("WA members only:   %t", s.WAOnly))
	con.Indent(fmt.Sprintf("Spare officers:    %t", s.IgnoreROs))
	con.Indent(fmt.Sprintf("Spare residents:   %t", s.IgnoreResidents))
	con.Indent(fmt.Sprintf("Target bogeys:     %t", s.TargetBogeys))
	con.Indent(fmt.Sprintf("Stop on update:    %t", s.StopOnUpdate))
	con.Indent(fmt.Sprintf("Poll speed:        %dms (+0-%dms jitter)", s.PollSpeed, s.Jitter))
	con.Indent(fmt.Sprintf("Trigger:           %s", s.Trigger))
	con.Blank()
}

// pulseSource is a control.PulseSource that holds a resource.
type pulseSource interface {
	control.PulseSource
	Close() error
}

func openPulses(cfg *config.Config, sw *killswitch.Switch) (control.PulseSource, string, func(), error) {
	clock := trigger.NewClock()
	var (
		src  pulseSource
		hint string
		err  error
	)
	switch cfg.Settings.Trigger {
	case config.TriggerFile:
		src, err = trigger.OpenFileSource(cfg.Settings.TriggerFile, clock)
		hint = "Run `samsite fire`"
	default:
		src, err = trigger.OpenKeyboard(clock, func() { sw.Trip(killswitch.ReasonInterrupt) })
		hint = "Press SPACE"
	}
	if err != nil {
		return nil, "", nil, err
	}
	return src, hint, func() { _ = src.Close() }, nil
}

// arm waits for the first pulse and primes the session with it. It
// reports false when the switch tripped before the operator armed.
func arm(ctx context.Context, sess *missile.Session, pulses control.PulseSource, sw *killswitch.Switch) (bool, error) {
	wctx, cancel := sw.Context(ctx)
	defer cancel()
	pulse, err := pulses.Next(wctx)
	if sw.Tripped() || errors.Is(err, trigger.ErrInterrupted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("waiting to arm: %w", err)
	}
	if err := sess.Prime(ctx, pulse); err != nil {
		return false, err
	}
	return true, nil
}

// openAudit returns the outcome recorder for the run and a function that
// closes the run. Both are no-ops when audit_log is empty.
func openAudit(cfg *config.Config, region string, log zerolog.Logger) (control.Recorder, func(control.Summary), error) {
	if cfg.Settings.AuditLog == "" {
		return nil, func(control.Summary) {}, nil
	}
	al, err := audit.Open(cfg.Settings.AuditLog, uuid.NewString(), region)
	if err != nil {
		return nil, nil, err
	}
	if err := engine.RunStarted(al); err != nil {
		log.Error().Err(err).Msg("failed to record run start")
	}
	log.Info().Str("run_id", al.RunID()).Str("path", cfg.Settings.AuditLog).Msg("audit log open")

	finish := func(s control.Summary) {
		if err := engine.RunEnded(al, s); err != nil {
			log.Error().Err(err).Msg("failed to record run end")
		}
		_ = al.Close()
	}
	return engine.AuditRecorder{Log: al}, finish, nil
}
