package apply

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

// Report is the outcome of one run. A run that stops on a failing job leaves
// the jobs after it in NotAttempted.
type Report struct {
	RunID        string
	DryRun       bool
	Declined     bool
	Applied      []string
	Failed       string
	NotAttempted []string
}

// Partial reports whether some jobs were applied and the run still stopped early.
func (r *Report) Partial() bool {
	return r.Failed != "" && len(r.Applied) > 0
}

// Print writes the per-job outcome.
func (r *Report) Print(w io.Writer) {
	verb := "applied"
	if r.DryRun {
		verb = "planned (dry run)"
	}
	if len(r.Applied) > 0 {
		fmt.Fprintln(w, pterm.FgGreen.Sprintf("%s: %s", verb, strings.Join(r.Applied, ", ")))
	}
	if r.Failed != "" {
		fmt.Fprintln(w, pterm.FgRed.Sprintf("failed: %s", r.Failed))
	}
	if len(r.NotAttempted) > 0 {
		fmt.Fprintln(w, pterm.FgYellow.Sprintf("not attempted: %s", strings.Join(r.NotAttempted, ", ")))
	}
}

// ApplyError is a statement failure inside one job's transaction.
// The transaction was rolled back and no later job was attempted.
type ApplyError struct {
	Job       string
	Statement string
	Report    *Report
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("job %q: statement failed: %v\n%s", e.Job, e.Err, e.Statement)
}

func (e *ApplyError) Unwrap() error { return e.Err }
