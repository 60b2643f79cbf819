package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"devlog/internal/logging"
	"devlog/internal/logs"
)

func newTailCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		debug  bool
		lines  int
		level  string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Display the newest log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := file
			if path == "" {
				if cfg.Logging.Dir == "" {
					return fmt.Errorf("file logging is disabled; pass --file")
				}
				dir := cfg.Logging.Dir
				if debug {
					dir = filepath.Join(dir, logging.DebugDirName)
				}
				path, err = logs.Latest(dir)
				if err != nil {
					return err
				}
			}

			filter := logs.NewLevelFilter(logging.LevelDebug)
			if level != "" {
				minLevel, err := logging.ParseLevel(level)
				if err != nil {
					return err
				}
				filter = logs.NewLevelFilter(minLevel)
			}

			offset := int64(-1)
			limit := lines
			if limit <= 0 {
				offset = 0
				limit = 0
			}

			out := cmd.OutOrStdout()
			runCtx := cmd.Context()
			printed := false
			for {
				result, err := logs.Tail(runCtx, path, logs.TailOptions{
					Offset: offset,
					Limit:  limit,
					Follow: follow,
					Wait:   time.Second,
				})
				if err != nil {
					if runCtx.Err() != nil {
						return nil
					}
					return fmt.Errorf("tail %s: %w", path, err)
				}
				for _, line := range filter.Apply(result.Lines) {
					fmt.Fprintln(out, line)
					printed = true
				}
				offset = result.Offset
				limit = 0
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				select {
				case <-runCtx.Done():
					return nil
				default:
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().BoolVar(&debug, "debug", false, "Read the full-verbosity debug log")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show")
	cmd.Flags().StringVar(&file, "file", "", "Log file to read instead of the newest one")
	return cmd
}
