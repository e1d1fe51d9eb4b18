package commands

import (
	"context"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/am"
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
	"github.com/andruche/pgagent-yaml/pgagent/apply"
	"github.com/andruche/pgagent-yaml/pgagent/files"
)

// SyncCmd applies YAML job files to the database
var SyncCmd = &cobra.Command{
	Use:   "sync [SOURCE]",
	Short: "Sync pgAgent jobs from YAML files",
	Long: `Compare SOURCE with the live pgAgent jobs and apply the difference.

SOURCE is a directory or a single job file. A directory is the complete set of
jobs: live jobs missing from it are deleted. A single file only touches its own job.

Each job is changed in its own transaction. The first failing job is rolled
back and stops the run; jobs already applied stay applied.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var syncFlagKeys = map[string]string{
	"sync.dry_run":        "dry-run",
	"sync.echo_queries":   "echo-queries",
	"sync.yes":            "yes",
	"sync.ignore_version": "ignore-version",
	"sync.watch":          "watch",
}

func init() {
	SyncCmd.Flags().Bool("dry-run", false, "Show the changes and statements without running them")
	SyncCmd.Flags().Bool("echo-queries", false, "Print the statements of every changed job")
	SyncCmd.Flags().BoolP("yes", "y", false, "Apply without asking for confirmation")
	SyncCmd.Flags().Bool("ignore-version", false, "Continue with an unsupported pgagent version")
	SyncCmd.Flags().Bool("watch", false, "Sync again whenever SOURCE changes (needs --yes or --dry-run)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, syncFlagKeys)
	if err != nil {
		return err
	}
	source := cfg.Sync.Source
	if len(args) == 1 {
		source = args[0]
	}
	if source == "" {
		return errors.WithHint(errors.New("no source given"), "pass a directory or a job file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Named("sync")
	ctx := cmd.Context()

	store, closeFn, err := connectChecked(ctx, cfg.Database.ConnInfo(), cfg.Sync.IgnoreVersion, log)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	orchestrator := apply.New(store, &apply.LinePrompter{In: cmd.InOrStdin(), Out: out}, out, apply.Options{
		DryRun: cfg.Sync.DryRun,
		Echo:   cfg.Sync.EchoQueries,
		Yes:    cfg.Sync.Yes || (cfg.Sync.Watch && cfg.Sync.DryRun),
		ErrOut: cmd.ErrOrStderr(),
	}, log)

	once := func(ctx context.Context) error {
		return syncOnce(ctx, orchestrator, store, source, cfg, out)
	}
	if err := once(ctx); err != nil {
		if !cfg.Sync.Watch {
			return err
		}
		log.Errorw("Sync failed", logger.FieldPath, source, logger.FieldError, err)
	}
	if !cfg.Sync.Watch {
		return nil
	}
	return watch(ctx, source, cfg, out, once, log)
}

func syncOnce(ctx context.Context, o *apply.Orchestrator, store LiveStore, source string, cfg *am.Config, out io.Writer) error {
	src, err := files.Load(source, cfg.Sync.DefaultJobClass)
	if err != nil {
		return err
	}
	report, err := o.Sync(ctx, store, src)
	if report != nil {
		report.Print(out)
	}
	return err
}

func watch(ctx context.Context, source string, cfg *am.Config, out io.Writer, once files.ChangeFunc, log *zap.SugaredLogger) error {
	watcher, err := files.NewWatcher(source, cfg.Sync.WatchDebounce(), log)
	if err != nil {
		return err
	}
	pterm.Info.WithWriter(out).Printfln("Watching %s for changes (Ctrl+C to stop)", source)
	return watcher.Run(ctx, once)
}
