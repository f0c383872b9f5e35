package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/samsite/internal/audit"
)

var (
	tailLines  int
	tailRun    string
	tailFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 0, "Show only the last N entries of the run")
	auditTailCmd.Flags().StringVar(&tailRun, "run", "", "Run ID (default: most recent run)")
	auditTailCmd.Flags().StringVarP(&tailFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Engagement log operations",
	Long:  "Commands for verifying and inspecting the hash-chained engagement log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify hash chain integrity of the engagement log",
	Long:  "Walks the JSONL engagement log and checks that every entry's prev_hash\nmatches the SHA-256 of the previous line. Fails if the chain is broken.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail [path]",
	Short: "Show the engagements of a run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditTail,
}

func auditPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(newConsole(cmd))
	if err != nil {
		return "", err
	}
	if cfg.Settings.AuditLog == "" {
		return "", fmt.Errorf("audit_log is disabled in config; pass a path")
	}
	return cfg.Settings.AuditLog, nil
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path, err := auditPath(cmd, args)
	if err != nil {
		return err
	}
	result := audit.Verify(path)
	if !result.Valid {
		return fmt.Errorf("FAILED at line %d: %s", result.ErrorLine, result.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries across %d runs verified\n", result.Lines, result.Runs)
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	path, err := auditPath(cmd, args)
	if err != nil {
		return err
	}
	result, err := audit.Tail(path, audit.TailFilter{RunID: tailRun, Last: tailLines})
	if err != nil {
		return err
	}

	switch tailFormat {
	case "json":
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	case "text":
		fmt.Fprint(cmd.OutOrStdout(), audit.FormatTimeline(result))
	default:
		return fmt.Errorf("unknown format %q (want text or json)", tailFormat)
	}
	return nil
}
