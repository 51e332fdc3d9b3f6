package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pokestate/internal/validate"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <save-id>",
		Short: "Run consistency checks against a save",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := openRuntime(ctx, nil, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	report, err := validate.Run(ctx, rt.saves, args[0])
	if err != nil {
		return err
	}

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

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if report.HasErrors() {
		return fmt.Errorf("save %s failed consistency checks", report.SaveID)
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		subject := issue.PlayerID
		if subject == "" {
			subject = "save"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", subject, issue.Message, issue.Code)
	}
}
