package document

import (
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/flags"
)

// Rows are the raw result sets the normalizer consumes, one map per row keyed by column alias.
type Rows struct {
	Jobs      []map[string]any
	Steps     []map[string]any
	Schedules []map[string]any
}

// Options control the normalization.
type Options struct {
	// IncludePeriod keeps schedule start/end in the canonical form
	IncludePeriod bool
	// Now is the server time used to detect inactive schedules; zero disables the check
	Now time.Time
}

// Advisory reports a schedule whose start/end were stripped although they make it inactive.
type Advisory struct {
	Job      string
	Schedule string
	Field    string
	At       time.Time
}

// Message renders the advisory for the operator.
func (a Advisory) Message() string {
	op := ">"
	if a.Field == FieldEnd {
		op = "<"
	}
	return fmt.Sprintf(`The schedule "%s/%s" is inactive (%s="%s" %s now)`,
		a.Job, a.Schedule, a.Field, a.At.Format("2006-01-02 15:04:05-07:00"), op)
}

// Normalize groups steps and schedules under their job by row id, then re-keys
// everything by name. The job id is dropped from the result.
func Normalize(rows Rows, opts Options) (map[string]*Job, []Advisory, error) {
	byID := make(map[int64]*Job, len(rows.Jobs))
	names := make(map[int64]string, len(rows.Jobs))
	jobs := make(map[string]*Job, len(rows.Jobs))

	for i, row := range rows.Jobs {
		id, err := intColumn(row, "id")
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job row %d", i)
		}
		name, err := stringColumn(row, "name")
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job row %d", i)
		}
		job, err := jobFromRow(row)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job %q", name)
		}
		if _, dup := jobs[name]; dup {
			return nil, nil, errors.Mark(errors.Newf("job %q appears twice", name), errors.ErrDuplicateName)
		}
		byID[id] = job
		names[id] = name
		jobs[name] = job
	}
	if err := CheckNames("jobs", jobs); err != nil {
		return nil, nil, err
	}

	for i, row := range rows.Steps {
		job, jobName, err := parentOf(row, byID, names)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "step row %d", i)
		}
		name, err := stringColumn(row, "name")
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job %q: step row %d", jobName, i)
		}
		step, err := stepFromRow(row)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job %q: step %q", jobName, name)
		}
		if _, dup := job.Steps[name]; dup {
			return nil, nil, errors.Mark(errors.Newf("job %q: step %q appears twice", jobName, name), errors.ErrDuplicateName)
		}
		job.Steps[name] = step
	}

	var advisories []Advisory
	for i, row := range rows.Schedules {
		job, jobName, err := parentOf(row, byID, names)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "schedule row %d", i)
		}
		name, err := stringColumn(row, "name")
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job %q: schedule row %d", jobName, i)
		}
		schedule, err := scheduleFromRow(row)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "job %q: schedule %q", jobName, name)
		}
		if !opts.IncludePeriod {
			if !opts.Now.IsZero() {
				advisories = append(advisories, inactive(jobName, name, schedule, opts.Now)...)
			}
			schedule.HasStart = false
			schedule.HasEnd = false
			schedule.Start = nil
			schedule.End = nil
		}
		if _, dup := job.Schedules[name]; dup {
			return nil, nil, errors.Mark(errors.Newf("job %q: schedule %q appears twice", jobName, name), errors.ErrDuplicateName)
		}
		job.Schedules[name] = schedule
	}

	for name, job := range jobs {
		if err := CheckNames(name+"/steps", job.Steps); err != nil {
			return nil, nil, err
		}
		if err := CheckNames(name+"/schedules", job.Schedules); err != nil {
			return nil, nil, err
		}
	}
	return jobs, advisories, nil
}

func inactive(jobName, name string, s *Schedule, now time.Time) []Advisory {
	var out []Advisory
	if s.Start != nil && s.Start.After(now) {
		out = append(out, Advisory{Job: jobName, Schedule: name, Field: FieldStart, At: *s.Start})
	}
	if s.End != nil && s.End.Before(now) {
		out = append(out, Advisory{Job: jobName, Schedule: name, Field: FieldEnd, At: *s.End})
	}
	return out
}

func parentOf(row map[string]any, byID map[int64]*Job, names map[int64]string) (*Job, string, error) {
	id, err := intColumn(row, "job_id")
	if err != nil {
		return nil, "", err
	}
	job, ok := byID[id]
	if !ok {
		return nil, "", errors.Newf("references unknown job id %d", id)
	}
	return job, names[id], nil
}

func jobFromRow(row map[string]any) (*Job, error) {
	job := &Job{Steps: map[string]*Step{}, Schedules: map[string]*Schedule{}}
	var err error
	if job.Enabled, err = boolColumn(row, "enabled"); err != nil {
		return nil, err
	}
	if job.Description, err = stringColumn(row, "description"); err != nil {
		return nil, err
	}
	if job.Class, err = stringColumn(row, "class"); err != nil {
		return nil, err
	}
	return job, nil
}

func stepFromRow(row map[string]any) (*Step, error) {
	step := &Step{}
	var err error
	if step.Enabled, err = boolColumn(row, "enabled"); err != nil {
		return nil, err
	}
	if step.Description, err = stringColumn(row, "description"); err != nil {
		return nil, err
	}
	kind, err := stringColumn(row, "kind")
	if err != nil {
		return nil, err
	}
	if step.Kind, err = StepKindFromCode(kind); err != nil {
		return nil, err
	}
	onError, err := stringColumn(row, "on_error")
	if err != nil {
		return nil, err
	}
	if step.OnError, err = OnErrorFromCode(onError); err != nil {
		return nil, err
	}
	if step.ConnectionString, err = stringColumn(row, "connection_string"); err != nil {
		return nil, err
	}
	if step.LocalDatabase, err = stringColumn(row, "local_database"); err != nil {
		return nil, err
	}
	if step.Code, err = stringColumn(row, "code"); err != nil {
		return nil, err
	}
	return step, nil
}

func scheduleFromRow(row map[string]any) (*Schedule, error) {
	s := &Schedule{HasStart: true, HasEnd: true}
	var err error
	if s.Description, err = stringColumn(row, "description"); err != nil {
		return nil, err
	}
	if s.Enabled, err = boolColumn(row, "enabled"); err != nil {
		return nil, err
	}
	if s.Start, err = timeColumn(row, "start"); err != nil {
		return nil, err
	}
	if s.End, err = timeColumn(row, "end"); err != nil {
		return nil, err
	}
	for _, fs := range s.flagSets() {
		bits, err := bitsColumn(row, fs.dim)
		if err != nil {
			return nil, err
		}
		*fs.flag = fs.dim.Compact(bits)
	}
	return s, nil
}

func column(row map[string]any, name string) (any, error) {
	v, ok := row[name]
	if !ok {
		return nil, errors.Newf("missing column %q", name)
	}
	return v, nil
}

func intColumn(row map[string]any, name string) (int64, error) {
	v, err := column(row, name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	}
	return 0, errors.Newf("column %q: expected integer, got %T", name, v)
}

func stringColumn(row map[string]any, name string) (string, error) {
	v, err := column(row, name)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	}
	return "", errors.Newf("column %q: expected text, got %T", name, v)
}

func boolColumn(row map[string]any, name string) (bool, error) {
	v, err := column(row, name)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	}
	return false, errors.Newf("column %q: expected boolean, got %T", name, v)
}

func timeColumn(row map[string]any, name string) (*time.Time, error) {
	v, err := column(row, name)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	}
	return nil, errors.Newf("column %q: expected timestamp, got %T", name, v)
}

func bitsColumn(row map[string]any, dim *flags.Dimension) ([]bool, error) {
	v, err := column(row, dim.Name())
	if err != nil {
		return nil, err
	}
	var bits pq.BoolArray
	if b, ok := v.([]bool); ok {
		bits = b
	} else if err := bits.Scan(v); err != nil {
		return nil, errors.Wrapf(err, "column %q", dim.Name())
	}
	if len(bits) != dim.Len() {
		return nil, errors.Newf("column %q: expected %d flags, got %d", dim.Name(), dim.Len(), len(bits))
	}
	return bits, nil
}
