package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/samsite/internal/config"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Generate a default config.yaml with comments",
	Long:  "Creates ~/.samsite/config.yaml (or the --config path) with default settings.\nEdit this file to set lists, poll speed and trigger mode.",
	RunE:  runInitConfig,
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if filepath.Ext(path) == ".toml" {
		return fmt.Errorf("init-config writes YAML; choose a path not ending in .toml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultConfigYAML()), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
