// Package apply turns reconciled job diffs into statements, asks for
// confirmation and runs each job's statements in its own transaction.
package apply

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/db"
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
	"github.com/andruche/pgagent-yaml/pgagent/reconcile"
	"github.com/andruche/pgagent-yaml/pgagent/statement"
)

// NothingToDo is printed when source and live state agree.
const NothingToDo = "Nothing to do: all jobs are up to date"

// Store runs a function inside one scoped transaction.
type Store interface {
	WithinTransaction(ctx context.Context, fn db.TxFunc) error
}

// Options of one run.
type Options struct {
	// DryRun builds and echoes statements without sending them.
	DryRun bool
	// Echo prints every job's statements.
	Echo bool
	// Yes skips the confirmation prompt, which dry runs ask too.
	Yes bool
	// ErrOut receives advisories; nil means os.Stderr.
	ErrOut io.Writer
}

// Plan is one job diff with the statements that carry it out, in execution order.
type Plan struct {
	Diff       reconcile.JobDiff
	Statements []string
}

// Script is the text of a plan as echoed and logged.
func (p Plan) Script() string {
	return "--job: " + p.Diff.Name + "\n" + strings.Join(p.Statements, "\n")
}

// BuildPlans builds the statements of every diff. Any build error aborts:
// nothing can be shown or run without statement text.
func BuildPlans(diffs []reconcile.JobDiff) ([]Plan, error) {
	plans := make([]Plan, 0, len(diffs))
	for _, d := range diffs {
		stmts, err := statement.ForJob(d)
		if err != nil {
			return nil, err
		}
		plans = append(plans, Plan{Diff: d, Statements: stmts})
	}
	return plans, nil
}

// Orchestrator applies job diffs.
type Orchestrator struct {
	store    Store
	prompter Prompter
	out      io.Writer
	opts     Options
	log      *zap.SugaredLogger
}

// New creates an orchestrator writing diffs, echo and prompts to out.
// store may be nil for dry runs.
func New(store Store, prompter Prompter, out io.Writer, opts Options, log *zap.SugaredLogger) *Orchestrator {
	if prompter == nil {
		prompter = Confirmed{}
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	return &Orchestrator{
		store:    store,
		prompter: prompter,
		out:      out,
		opts:     opts,
		log:      logger.OrNop(log),
	}
}

// Run plans, prints, confirms and applies diffs. Jobs are applied strictly in
// order; the first failing job is rolled back and stops the run with an *ApplyError.
// Declining the prompt returns errors.ErrDeclined with nothing executed.
func (o *Orchestrator) Run(ctx context.Context, diffs []reconcile.JobDiff) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), DryRun: o.opts.DryRun}
	log := o.log.With(logger.FieldRunID, report.RunID)

	if len(diffs) == 0 {
		fmt.Fprintln(o.out, NothingToDo)
		return report, nil
	}

	plans, err := BuildPlans(diffs)
	if err != nil {
		return report, err
	}
	if err := reconcile.Render(o.out, diffs); err != nil {
		return report, err
	}

	if !o.opts.Yes {
		ok, err := o.prompter.Confirm(fmt.Sprintf("Are you sure you want to change %d jobs? (y/n): ", len(plans)))
		if err != nil {
			return report, err
		}
		if !ok {
			report.Declined = true
			report.NotAttempted = names(plans)
			log.Infow("Sync declined", logger.FieldCount, len(plans))
			return report, errors.ErrDeclined
		}
	}

	for i, plan := range plans {
		o.echo(plan)
		log.Infow("Applying job",
			logger.FieldJob, plan.Diff.Name,
			logger.FieldCount, len(plan.Statements),
			logger.FieldDryRun, o.opts.DryRun)

		if o.opts.DryRun {
			report.Applied = append(report.Applied, plan.Diff.Name)
			continue
		}

		failed, err := o.applyPlan(ctx, plan)
		if err != nil {
			report.Failed = plan.Diff.Name
			report.NotAttempted = names(plans[i+1:])
			log.Errorw("Job failed, transaction rolled back",
				logger.FieldJob, plan.Diff.Name,
				logger.FieldStatement, failed,
				logger.FieldError, err)
			return report, &ApplyError{Job: plan.Diff.Name, Statement: failed, Report: report, Err: err}
		}
		report.Applied = append(report.Applied, plan.Diff.Name)
	}

	log.Infow("Sync finished",
		logger.FieldCount, len(report.Applied),
		logger.FieldDryRun, o.opts.DryRun)
	return report, nil
}

// applyPlan runs the plan's statements one by one in one transaction and
// returns the statement that failed.
func (o *Orchestrator) applyPlan(ctx context.Context, plan Plan) (string, error) {
	if o.store == nil {
		return "", errors.New("no store configured")
	}
	var failed string
	err := o.store.WithinTransaction(ctx, func(ctx context.Context, tx db.Executor) error {
		for _, stmt := range plan.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				failed = stmt
				return err
			}
		}
		return nil
	})
	return failed, err
}

func (o *Orchestrator) echo(plan Plan) {
	if !o.opts.Echo {
		return
	}
	label := "QUERY"
	if o.opts.DryRun {
		label = "QUERY (not executed)"
	}
	fmt.Fprintln(o.out, pterm.FgYellow.Sprint(label+": "+plan.Script())+"\n")
}

func names(plans []Plan) []string {
	out := make([]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Diff.Name)
	}
	return out
}
