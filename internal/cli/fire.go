package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/samsite/internal/trigger"
)

var fireFile string

func init() {
	rootCmd.AddCommand(fireCmd)
	fireCmd.Flags().StringVar(&fireFile, "file", "", "Trigger file (default: trigger_file from config)")
}

var fireCmd = &cobra.Command{
	Use:   "fire",
	Short: "Authorize one engagement of a run in file trigger mode",
	Long:  "Writes one pulse to the trigger file watched by a running samsite with\ntrigger: file. Each invocation authorizes exactly one engagement.",
	Args:  cobra.NoArgs,
	RunE:  runFire,
}

func runFire(cmd *cobra.Command, args []string) error {
	path := fireFile
	if path == "" {
		cfg, err := loadConfig(newConsole(cmd))
		if err != nil {
			return err
		}
		path = cfg.Settings.TriggerFile
	}

	if err := trigger.Fire(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fired %s\n", path)
	return nil
}
