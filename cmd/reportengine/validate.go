package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reportengine/internal/codec"
	"reportengine/internal/scenario"
	"reportengine/internal/validate"
)

func validateCmd() *cobra.Command {
	var savedID int64
	cmd := &cobra.Command{
		Use:   "validate [FILE]",
		Short: "Check a scenario for dangling references and other problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, savedID)
		},
	}
	cmd.Flags().Int64Var(&savedID, "saved", 0, "Saved scenario id (default: current draft)")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string, savedID int64) error {
	s, err := scenarioFromArgs(args, savedID)
	if err != nil {
		return err
	}
	report := validate.Run(s)

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	out := cmd.OutOrStdout()
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Name
		if issue.Event > 0 {
			location = fmt.Sprintf("Event #%d", issue.Event)
		}
		if location == "" {
			location = "scenario"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}

// scenarioFromArgs reads the scenario from a file argument, or from the
// database when no file is given.
func scenarioFromArgs(args []string, savedID int64) (scenario.Scenario, error) {
	if len(args) == 1 {
		format, err := codec.FormatFromPath(args[0])
		if err != nil {
			return scenario.Scenario{}, err
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return scenario.Scenario{}, fmt.Errorf("reading %s: %w", args[0], err)
		}
		doc, err := codec.DecodeDocument(raw, format)
		if err != nil {
			return scenario.Scenario{}, err
		}
		return doc.Scenario, nil
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return scenario.Scenario{}, err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return scenario.Scenario{}, err
	}
	defer db.Close(ctx)
	return loadScenario(ctx, db, savedID)
}
