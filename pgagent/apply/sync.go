package apply

import (
	"context"

	"github.com/andruche/pgagent-yaml/logger"
	"github.com/andruche/pgagent-yaml/pgagent/document"
	"github.com/andruche/pgagent-yaml/pgagent/export"
	"github.com/andruche/pgagent-yaml/pgagent/files"
	"github.com/andruche/pgagent-yaml/pgagent/reconcile"
)

// Sync reconciles the live jobs read through live with src and applies the difference.
// Live start/end are compared only when some source schedule carries them.
func (o *Orchestrator) Sync(ctx context.Context, live export.Store, src *files.Source) (*Report, error) {
	includePeriod := document.HasPeriod(src.Jobs)
	current, advisories, err := export.Fetch(ctx, live, export.Options{IncludePeriod: includePeriod})
	if err != nil {
		return nil, err
	}
	export.ReportAdvisories(o.opts.ErrOut, advisories, o.log)

	diffs := reconcile.Compute(src.Jobs, current, src.Scope)
	o.log.Debugw("Computed diff",
		logger.FieldScope, src.Scope.String(),
		logger.FieldCount, len(diffs),
		logger.FieldTotalCount, len(src.Jobs))
	return o.Run(ctx, diffs)
}
