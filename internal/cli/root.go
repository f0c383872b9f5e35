// Package cli wires the samsite commands.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ppiankov/samsite/internal/config"
	"github.com/ppiankov/samsite/internal/console"
	"github.com/ppiankov/samsite/internal/logging"
	"github.com/ppiankov/samsite/internal/nsapi"
)

var (
	configPath string
	logFile    string
	logLevel   string
	apiBase    string
	siteBase   string
)

var rootCmd = &cobra.Command{
	Use:   "samsite",
	Short: "Region border defense for NationStates",
	Long: "Watches a region for arriving nations, classifies them friend or foe,\n" +
		"and bans hostile arrivals one at a time, each on an explicit operator command.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.samsite/config.yaml; .toml files are read as TOML)")
	pf.StringVar(&logFile, "log-file", "", "Diagnostic log file (default ~/.samsite/samsite.log, - for stderr)")
	pf.StringVar(&logLevel, "log-level", "info", "Diagnostic log level (debug|info|warn|error)")
	pf.StringVar(&apiBase, "api-base", nsapi.DefaultAPIBase, "API endpoint")
	pf.StringVar(&siteBase, "site-base", nsapi.DefaultSiteBase, "Site endpoint")
	_ = pf.MarkHidden("api-base")
	_ = pf.MarkHidden("site-base")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newConsole returns a console on the command's streams, colored when
// they are a terminal.
func newConsole(cmd *cobra.Command) *console.Console {
	out := cmd.OutOrStdout()
	terminal := false
	if f, ok := out.(*os.File); ok {
		terminal = term.IsTerminal(int(f.Fd()))
	}
	return console.New(out, cmd.InOrStdin(), terminal)
}

// loadConfig loads and normalizes the config, printing any warnings.
func loadConfig(con *console.Console) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Normalize()
	for _, w := range warnings {
		con.Warnf("%s", w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func openLog() (zerolog.Logger, io.Closer, error) {
	path := logFile
	if path == "" {
		path = filepath.Join(config.DefaultDir(), "samsite.log")
	}
	return logging.Open(path, logLevel)
}

func newClient(user string, log zerolog.Logger) *nsapi.Client {
	return nsapi.New(nsapi.Options{
		Version:  version,
		User:     user,
		APIBase:  apiBase,
		SiteBase: siteBase,
		Logger:   log.With().Str("component", "nsapi").Logger(),
	})
}
