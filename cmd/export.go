package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/bugtrack/internal/export"
)

var exportTo string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of all bugs",
	Long: `Write a JSON snapshot {exportedAt, count, bugs} of every bug, newest first.

Targets:
  --to ./backups                 local directory
  --to file:///var/backups/bugs  local directory
  --to s3://bucket/prefix        S3 or S3-compatible bucket (see export.* config)

S3 credentials come from the standard AWS chain (AWS_ACCESS_KEY_ID,
AWS_SECRET_ACCESS_KEY, ~/.aws/credentials, instance roles).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context(), exportTo)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "export destination (directory, file://dir or s3://bucket/prefix; defaults to export.s3_bucket)")
	rootCmd.AddCommand(exportCmd)
}

func s3Config() export.S3Config {
	return export.S3Config{
		Region:          viper.GetString("export.s3_region"),
		Endpoint:        viper.GetString("export.s3_endpoint"),
		PathStyle:       viper.GetBool("export.s3_path_style"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}
}

func exportRun(ctx context.Context, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if target == "" {
		bucket := viper.GetString("export.s3_bucket")
		if bucket == "" {
			return fmt.Errorf("no export target: pass --to or set export.s3_bucket")
		}
		target = "s3://" + bucket
	}

	sink, err := export.Target(ctx, target, s3Config())
	if err != nil {
		return err
	}

	svc, err := getService()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would export bugs to %s", target)
		return nil
	}

	loc, snap, err := export.Export(ctx, svc, sink, time.Now())
	if err != nil {
		return err
	}
	ui.Success("Exported %d bugs to %s", snap.Count, loc)
	return nil
}
