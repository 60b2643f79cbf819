package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"devlog/internal/logging"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove log files older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Logging.Dir == "" {
				fmt.Fprintln(out, "File logging is disabled; nothing to prune")
				return nil
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.Logging.RetentionDays
			}
			if days <= 0 {
				fmt.Fprintln(out, "Retention is disabled (retention_days = 0)")
				return nil
			}

			removed := logging.CleanupOldLogs(nil, days,
				logging.RetentionTarget{Dir: cfg.Logging.Dir, Pattern: "*.log"},
				logging.RetentionTarget{Dir: filepath.Join(cfg.Logging.Dir, logging.DebugDirName), Pattern: "*.log"},
			)
			for _, path := range removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			fmt.Fprintf(out, "Pruned %d log file(s) older than %d day(s)\n", len(removed), days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (defaults to logging.retention_days)")
	return cmd
}
