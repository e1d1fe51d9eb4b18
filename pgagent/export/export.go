// Package export reads the live pgagent jobs and writes them as documents.
package export

import (
	"context"
	"io"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/andruche/pgagent-yaml/db"
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
	"github.com/andruche/pgagent-yaml/pgagent/document"
	"github.com/andruche/pgagent-yaml/pgagent/files"
)

// Queries are plain SQL understood by PostgreSQL and by the SQLite test schema.
const (
	JobsQuery = `select j.jobid as id,
       j.jobname as name,
       j.jobenabled as enabled,
       j.jobdesc as description,
       c.jclname as class
  from pgagent.pga_job j
  left join pgagent.pga_jobclass c on c.jclid = j.jobjclid
 order by j.jobname`

	StepsQuery = `select jstjobid as job_id,
       jstname as name,
       jstenabled as enabled,
       jstdesc as description,
       jstkind as kind,
       jstonerror as on_error,
       jstconnstr as connection_string,
       jstdbname as local_database,
       jstcode as code
  from pgagent.pga_jobstep
 order by jstname`

	SchedulesQuery = `select jscjobid as job_id,
       jscname as name,
       jscdesc as description,
       jscenabled as enabled,
       jscstart as start,
       jscend as "end",
       jscminutes as minutes,
       jschours as hours,
       jscmonthdays as monthdays,
       jscmonths as months,
       jscweekdays as weekdays
  from pgagent.pga_schedule
 order by jscname`
)

// PeriodHint follows the inactive-schedule warnings.
const PeriodHint = `Use --include-schedule-start-end for export schedules with "start", "end" fields`

// Store reads rows and the server clock.
type Store interface {
	Fetch(ctx context.Context, query string) ([]db.Row, error)
	Now(ctx context.Context) (time.Time, error)
}

// Options of a live read.
type Options struct {
	// IncludePeriod keeps schedule start/end.
	IncludePeriod bool
}

// Fetch reads and normalizes the live jobs. Without IncludePeriod the server
// time is read so that schedules made inactive by start/end are reported.
func Fetch(ctx context.Context, store Store, opts Options) (map[string]*document.Job, []document.Advisory, error) {
	var rows document.Rows
	var err error
	if rows.Jobs, err = store.Fetch(ctx, JobsQuery); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read jobs")
	}
	if rows.Steps, err = store.Fetch(ctx, StepsQuery); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read steps")
	}
	if rows.Schedules, err = store.Fetch(ctx, SchedulesQuery); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read schedules")
	}

	norm := document.Options{IncludePeriod: opts.IncludePeriod}
	if !opts.IncludePeriod {
		if norm.Now, err = store.Now(ctx); err != nil {
			return nil, nil, err
		}
	}
	return document.Normalize(rows, norm)
}

// ReportAdvisories warns about every advisory on w and logs it, followed by one hint.
func ReportAdvisories(w io.Writer, advisories []document.Advisory, log *zap.SugaredLogger) {
	if len(advisories) == 0 {
		return
	}
	log = logger.OrNop(log)
	warn := pterm.Warning.WithWriter(w)
	for _, a := range advisories {
		warn.Println(a.Message())
		log.Warnw("Schedule is inactive",
			logger.FieldJob, a.Job,
			logger.FieldSchedule, a.Schedule,
			logger.FieldItem, a.Field)
	}
	hint := pterm.Info.WithWriter(w).WithPrefix(pterm.Prefix{Text: "HINT", Style: pterm.Info.Prefix.Style})
	hint.Println(PeriodHint)
}

// Exporter writes live jobs to a directory.
type Exporter struct {
	store  Store
	errOut io.Writer
	log    *zap.SugaredLogger
}

// New creates an exporter reporting advisories on errOut.
func New(store Store, errOut io.Writer, log *zap.SugaredLogger) *Exporter {
	return &Exporter{store: store, errOut: errOut, log: logger.OrNop(log)}
}

// Run writes one document per live job into dir and returns the written paths.
// dir must be empty unless clean is set.
func (e *Exporter) Run(ctx context.Context, dir string, clean bool, opts Options) ([]string, error) {
	jobs, advisories, err := Fetch(ctx, e.store, opts)
	if err != nil {
		return nil, err
	}
	ReportAdvisories(e.errOut, advisories, e.log)

	names := document.SortedNames(jobs)
	for _, name := range names {
		if _, err := files.FileName(name); err != nil {
			return nil, err
		}
	}
	if err := files.PrepareOutDir(dir, clean); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path, err := files.Save(dir, name, jobs[name])
		if err != nil {
			return paths, err
		}
		e.log.Debugw("Exported job", logger.FieldJob, name, logger.FieldFile, path)
		paths = append(paths, path)
	}
	e.log.Infow("Export finished",
		logger.FieldCount, len(paths),
		logger.FieldPath, dir)
	return paths, nil
}
