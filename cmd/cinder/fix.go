package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinder/internal/driver"
	"cinder/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <scenario.toml>",
	Short: "Preview automatic fixes for a failure scenario",
	Long:  `Diagnose a scenario and apply the suggested fixes to its recorded source, printing the patched result`,
	Args:  cobra.ExactArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every always-safe fix")
	fixCmd.Flags().Bool("once", false, "apply the first safe fix only")
	fixCmd.Flags().String("id", "", "apply the fix with the matching ID")
}

func readApplyMode(cmd *cobra.Command) (fix.ApplyOptions, error) {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	once, err := cmd.Flags().GetBool("once")
	if err != nil {
		return fix.ApplyOptions{}, err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return fix.ApplyOptions{}, err
	}

	selected := 0
	if all {
		selected++
	}
	if once {
		selected++
	}
	if targetID != "" {
		selected++
	}
	if selected > 1 {
		return fix.ApplyOptions{}, fmt.Errorf("--all, --once and --id are mutually exclusive")
	}

	// Scenario sources are virtual, so edits are always staged in memory.
	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: true}
	switch {
	case once:
		opts.Mode = fix.ApplyModeOnce
	case targetID != "":
		opts.Mode = fix.ApplyModeID
		opts.TargetID = targetID
	}
	return opts, nil
}

func runFix(cmd *cobra.Command, args []string) error {
	applyOpts, err := readApplyMode(cmd)
	if err != nil {
		return err
	}

	res, err := driver.DiagnoseScenario(args[0], driver.Options{Dedup: true, WithNotes: true})
	if err != nil {
		return fmt.Errorf("diagnosis failed: %w", err)
	}

	result, err := fix.Apply(res.Files, res.Bag.Items(), applyOpts)
	if err != nil {
		if errors.Is(err, fix.ErrNoFixes) {
			printApplyResult(result)
			fmt.Fprintln(os.Stdout, "No applicable fixes found.")
			return nil
		}
		return fmt.Errorf("failed to apply fixes: %w", err)
	}

	printApplyResult(result)
	for _, change := range result.FileChanges {
		fmt.Fprintf(os.Stdout, "\n--- %s (%d edits) ---\n", change.Path, change.EditCount)
		os.Stdout.Write(change.NewContent)
		if n := len(change.NewContent); n == 0 || change.NewContent[n-1] != '\n' {
			fmt.Fprintln(os.Stdout)
		}
	}
	return nil
}

func printApplyResult(result *fix.ApplyResult) {
	if result == nil {
		return
	}
	if len(result.Applied) > 0 {
		fmt.Fprintf(os.Stdout, "Applied %d fix(es):\n", len(result.Applied))
		for _, applied := range result.Applied {
			fmt.Fprintf(os.Stdout, "  [%s] %s (%s, %d edits)\n",
				applied.ID, applied.Title, applied.PrimaryPath, applied.EditCount)
		}
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(os.Stdout, "Skipped %d fix(es):\n", len(result.Skipped))
		for _, skipped := range result.Skipped {
			fmt.Fprintf(os.Stdout, "  [%s] %s: %s\n", skipped.ID, skipped.Title, skipped.Reason)
		}
	}
}
