package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/samsite/internal/nation"
)

var (
	checkMain   string
	checkRegion string
	checkRO     string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkMain, "main", "", "Operator's main nation, sent in the user agent (required)")
	checkCmd.Flags().StringVar(&checkRegion, "region", "", "Region to check (default: region_override, else the --ro nation's region)")
	checkCmd.Flags().StringVar(&checkRO, "ro", "", "Regional officer nation used to find the region")
	_ = checkCmd.MarkFlagRequired("main")
}

var checkCmd = &cobra.Command{
	Use:   "check [nation...]",
	Short: "Build the IFF system and classify nations without logging in",
	Long: "Loads the config, fetches the region's rosters, and prints the IFF set\n" +
		"sizes. Each nation given as an argument is classified and the rule that\n" +
		"decided it is shown. Nothing is engaged.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	con := newConsole(cmd)
	cfg, err := loadConfig(con)
	if err != nil {
		return err
	}
	log, closer, err := openLog()
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx := cmd.Context()
	client := newClient(checkMain, log)

	region := nation.Canonicalize(checkRegion)
	if region == "" {
		region = cfg.Settings.RegionOverride
	}
	if region == "" {
		if checkRO == "" {
			return fmt.Errorf("one of --region, --ro or region_override is required")
		}
		if region, err = client.RegionOf(ctx, checkRO); err != nil {
			return err
		}
	}
	con.Infof("Region: %s", nation.Display(region))

	registry, err := buildRegistry(ctx, cfg, client, region, con, log)
	if err != nil {
		return err
	}

	for _, name := range args {
		d, m := registry.Explain(name)
		con.Indent(fmt.Sprintf("%-30s %-14s (%s)", nation.Display(nation.Canonicalize(name)), d, m))
	}
	return nil
}
