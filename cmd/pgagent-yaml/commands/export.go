package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
	"github.com/andruche/pgagent-yaml/pgagent/export"
)

// ExportCmd writes the live jobs to a directory
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export pgAgent jobs to YAML files",
	Long: `Write one <job name>.yaml file per pgAgent job into --out-dir.

A non-empty output directory is removed first only with --clean (or
PGAGENT_YAML_AUTOCLEAN=true). Schedule start and end are left out unless
--include-schedule-start-end is given; schedules they make inactive are reported.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var exportFlagKeys = map[string]string{
	"export.out_dir":                    "out-dir",
	"export.clean":                      "clean",
	"export.ignore_version":             "ignore-version",
	"export.include_schedule_start_end": "include-schedule-start-end",
}

func init() {
	ExportCmd.Flags().String("out-dir", "", "Directory to write job files into")
	ExportCmd.Flags().Bool("clean", false, "Remove the output directory first if it is not empty")
	ExportCmd.Flags().Bool("ignore-version", false, "Continue with an unsupported pgagent version")
	ExportCmd.Flags().Bool("include-schedule-start-end", false, "Keep schedule start and end")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, exportFlagKeys)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Export.OutDir == "" {
		return errors.WithHint(errors.New("no output directory"), "pass --out-dir or set export.out_dir")
	}

	log := logger.Named("export")
	ctx := cmd.Context()

	store, closeFn, err := connectChecked(ctx, cfg.Database.ConnInfo(), cfg.Export.IgnoreVersion, log)
	if err != nil {
		return err
	}
	defer closeFn()

	exporter := export.New(store, cmd.ErrOrStderr(), log)
	paths, err := exporter.Run(ctx, cfg.Export.OutDir, cfg.Export.Clean, export.Options{
		IncludePeriod: cfg.Export.IncludeScheduleStartEnd,
	})
	if err != nil {
		return err
	}

	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("Exported %d jobs to %s", len(paths), cfg.Export.OutDir)
	return nil
}
