package commands

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/4jp/alchemia/internal/workflow"
	"github.com/4jp/alchemia/pkg/formatting"
)

var statusIn string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize an inventory document",
	Long: `Print a summary of an inventory document: file and duplicate counts,
total size, classification progress, and the organ distribution.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusIn, "in", "i", defaultInventory, "Inventory document to read")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	entries, err := workflow.LoadInventory(statusIn)
	if err != nil {
		return fail("load inventory: %v", err)
	}

	var (
		size       int64
		duplicates int
		classified int
		pending    int
		organs     = make(map[string]int)
	)

	for i := range entries {
		e := &entries[i]
		size += e.SizeBytes
		if e.Duplicate {
			duplicates++
		}

		c := e.Classification
		if c == nil {
			continue
		}
		if c.Classified() {
			classified++
			organs[c.TargetOrgan]++
		} else {
			pending++
		}
	}

	heading("Inventory %s\n", statusIn)
	info("  files:      %d\n", len(entries))
	info("  size:       %s\n", formatting.FormatBytes(size, 1))
	info("  duplicates: %d\n", duplicates)

	if classified == 0 && pending == 0 {
		warning("not yet classified, run: alchemia absorb\n")
		return nil
	}

	info("  classified: %d\n", classified)
	if pending > 0 {
		warning("pending review: %d\n", pending)
	}

	names := make([]string, 0, len(organs))
	for name := range organs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		info("  %-12s %d\n", name, organs[name])
	}

	return nil
}
