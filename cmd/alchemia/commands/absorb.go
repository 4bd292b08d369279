package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/4jp/alchemia/internal/config"
	"github.com/4jp/alchemia/internal/workflow"
)

var (
	absorbIn       string
	absorbOut      string
	absorbRegistry string
	absorbRules    string
	absorbAnchor   string
)

var absorbCmd = &cobra.Command{
	Use:   "absorb",
	Short: "Classify every inventory entry against the registry",
	Long: `Run the classification rule chain over an inventory document. Every
entry receives a destination or is marked for review, and the updated
inventory is written back for the alchemize stage.

Examples:
  # Classify the default inventory in place
  alchemia absorb

  # Classify against an explicit registry
  alchemia absorb --registry /etc/alchemia/registry.json`,
	RunE: runAbsorb,
}

func init() {
	absorbCmd.Flags().StringVarP(&absorbIn, "in", "i", defaultInventory, "Inventory document to read")
	absorbCmd.Flags().StringVarP(&absorbOut, "out", "o", "", "Inventory document to write (defaults to --in)")
	absorbCmd.Flags().StringVar(&absorbRegistry, "registry", "", "Repository registry JSON")
	absorbCmd.Flags().StringVar(&absorbRules, "rules", "", "Rule tables TOML (defaults to the embedded tables)")
	absorbCmd.Flags().StringVar(&absorbAnchor, "anchor", "", "Path anchor segment for directory matching")

	rootCmd.AddCommand(absorbCmd)
}

func runAbsorb(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail("config load failed: %v", err)
	}

	if absorbRegistry != "" {
		cfg.Pipeline.RegistryPath = absorbRegistry
	}
	if absorbRules != "" {
		cfg.Pipeline.RulesPath = absorbRules
	}
	if absorbAnchor != "" {
		cfg.Pipeline.Anchor = absorbAnchor
	}

	entries, err := workflow.LoadInventory(absorbIn)
	if err != nil {
		return fail("load inventory: %v", err)
	}

	logger := cliLogger()
	rt, err := workflow.Build(&cfg.Pipeline, nil, logger)
	if err != nil {
		return fail("%v", err)
	}

	stats := workflow.Classify(rt, entries)

	out := absorbOut
	if out == "" {
		out = absorbIn
	}
	if err := workflow.SaveInventory(out, entries); err != nil {
		return fail("save inventory: %v", err)
	}

	heading("Absorb\n")
	info("  total:      %d\n", stats.Total)
	info("  classified: %d\n", stats.Classified)
	if stats.Pending > 0 {
		warning("pending review: %d\n", stats.Pending)
	}
	info("  resolution: %.1f%%\n", stats.ResolutionRate()*100)

	rules := make([]int, 0, len(stats.ByRule))
	for rule := range stats.ByRule {
		rules = append(rules, rule)
	}
	sort.Ints(rules)
	for _, rule := range rules {
		info("  rule %d: %d\n", rule, stats.ByRule[rule])
	}

	success("inventory written to %s\n", out)

	return nil
}
