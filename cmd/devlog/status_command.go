package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"devlog/internal/config"
	"devlog/internal/deps"
	"devlog/internal/netcheck"
	"devlog/internal/preflight"
	"devlog/internal/report"
	"devlog/internal/sysmon"
)

const statusModuleLimit = 8

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration, readiness checks, and system resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var checker *netcheck.Checker
			if !offline {
				checker = netcheck.New(netcheck.Options{
					Target:      cfg.Network.Target,
					Timeout:     cfg.Network.Timeout(),
					Concurrency: cfg.Network.Concurrency,
				})
			}
			results := preflight.RunAll(cmd.Context(), cfg, checker)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, configLines(ctx, cfg, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checkTable(results))
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("System", colorize)...)
			lines = append(lines, systemLines(cfg, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			lines = append(lines, renderInfoLines(deps.NewEnvCache(nil, 0).Get().Lines(statusModuleLimit))...)
			if checker != nil {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Network", colorize)...)
				lines = append(lines, renderInfoLines(checker.StatsLines())...)
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks")
	return cmd
}

func configLines(ctx *commandContext, cfg *config.Config, colorize bool) []string {
	source := statusOK
	if !ctx.loaded.exists {
		source = statusWarn
	}
	logDir := cfg.Logging.Dir
	if logDir == "" {
		logDir = "disabled"
	}
	return []string{
		renderStatusLine("Config", source, ctx.configSource(), colorize),
		renderStatusLine("Log directory", statusInfo, logDir, colorize),
		renderStatusLine("Levels", statusInfo, fmt.Sprintf("console=%s file=%s verbosity=%d", cfg.Logging.ConsoleLevel, cfg.Logging.FileLevel, cfg.Logging.Verbosity), colorize),
		renderStatusLine("Print capture", statusInfo, yesNo(cfg.Logging.CapturePrints), colorize),
	}
}

func checkTable(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "OK"
		if !r.Passed {
			state = "FAIL"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	return report.Table([]string{"Check", "Status", "Detail"}, rows, []report.Alignment{report.AlignLeft, report.AlignLeft, report.AlignLeft})
}

func systemLines(cfg *config.Config, colorize bool) []string {
	monitor := sysmon.New(sysmon.Options{LeakThreshold: int64(cfg.Monitor.LeakThreshold), ProcRoot: cfg.Monitor.ProcRoot})
	status, err := monitor.Status()
	lines := renderInfoLines(status.Lines())
	if err != nil {
		lines = append(lines, renderStatusLine("Sampling", statusWarn, err.Error(), colorize))
	}
	return lines
}
