package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/joescharf/bugtrack/internal/models"
	"github.com/joescharf/bugtrack/internal/output"
)

var (
	bugTitle  string
	bugDesc   string
	bugStatus string
)

var bugCmd = &cobra.Command{
	Use:   "bug",
	Short: "Manage bug reports",
	Long:  "Create, list, show, update and delete bugs. IDs accept any unique prefix.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Report a new bug",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugAddRun(payloadFromFlags(cmd))
	},
}

var bugListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bugs, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show bug details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugShowRun(args[0])
	},
}

var bugUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a bug's title, description or status",
	Long:  "Update a bug. Only the flags you pass are changed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugUpdateRun(args[0], payloadFromFlags(cmd))
	},
}

var bugDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a bug permanently",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugDeleteRun(args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{bugAddCmd, bugUpdateCmd} {
		c.Flags().StringVarP(&bugTitle, "title", "t", "", "Bug title")
		c.Flags().StringVarP(&bugDesc, "desc", "d", "", "Bug description")
		c.Flags().StringVarP(&bugStatus, "status", "s", "", "Status: open, in-progress, closed")
	}
	_ = bugAddCmd.MarkFlagRequired("title")

	bugCmd.AddCommand(bugAddCmd)
	bugCmd.AddCommand(bugListCmd)
	bugCmd.AddCommand(bugShowCmd)
	bugCmd.AddCommand(bugUpdateCmd)
	bugCmd.AddCommand(bugDeleteCmd)
	rootCmd.AddCommand(bugCmd)
}

// payloadFromFlags includes only the flags set on the command line, so an
// update never blanks a field the user did not mention.
func payloadFromFlags(cmd *cobra.Command) *models.Payload {
	p := &models.Payload{}
	if cmd.Flags().Changed("title") {
		p.Title = lo.ToPtr(bugTitle)
	}
	if cmd.Flags().Changed("desc") {
		p.Description = lo.ToPtr(models.FreeText(bugDesc))
	}
	if cmd.Flags().Changed("status") {
		p.Status = lo.ToPtr(models.BugStatus(bugStatus))
	}
	return p
}

// shortID returns the first 12 characters of a ULID for display.
func shortID(id models.BugID) string {
	if len(id) > 12 {
		return string(id[:12])
	}
	return string(id)
}

func bugAddRun(p *models.Payload) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create bug: %s", lo.FromPtr(p.Title))
		return nil
	}

	bug, err := svc.Create(context.Background(), p)
	if err != nil {
		return err
	}
	ui.Success("Created bug %s: %s", output.Cyan(shortID(bug.ID)), bug.Title)
	return nil
}

func bugListRun() error {
	svc, err := getService()
	if err != nil {
		return err
	}

	list, err := svc.List(context.Background())
	if err != nil {
		return err
	}

	if len(list) == 0 {
		ui.Info("No bugs found.")
		return nil
	}

	now := time.Now()
	table := ui.Table([]string{"ID", "Title", "Status", "Created"})
	for _, bug := range list {
		_ = table.Append([]string{
			shortID(bug.ID),
			output.Truncate(bug.Title, 60),
			output.StatusColor(bug.Status),
			output.Age(bug.CreatedAt, now),
		})
	}
	return table.Render()
}

func bugShowRun(ref string) error {
	svc, err := getService()
	if err != nil {
		return err
	}

	bug, err := svc.Find(context.Background(), ref)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(bug.ID)), bug.Title)
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(bug.Status))
	if bug.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:       %s\n", bug.Description)
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", bug.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", bug.ID)
	return nil
}

func bugUpdateRun(ref string, p *models.Payload) error {
	if p.Title == nil && p.Description == nil && p.Status == nil {
		return fmt.Errorf("nothing to update; pass at least one of --title, --desc, --status")
	}

	svc, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bug, err := svc.Find(ctx, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would update bug %s", shortID(bug.ID))
		return nil
	}

	updated, err := svc.Update(ctx, bug.ID, p)
	if err != nil {
		return err
	}
	ui.Success("Updated bug %s: %s (%s)", output.Cyan(shortID(updated.ID)), updated.Title, output.StatusColor(updated.Status))
	return nil
}

func bugDeleteRun(ref string) error {
	svc, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bug, err := svc.Find(ctx, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete bug %s: %s", shortID(bug.ID), bug.Title)
		return nil
	}

	if err := svc.Delete(ctx, bug.ID); err != nil {
		return err
	}
	ui.Success("Deleted bug %s", shortID(bug.ID))
	return nil
}
