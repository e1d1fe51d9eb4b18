// Package statement turns reconciled changes into literal SQL for the pgagent tables.
//
// Rows are addressed by name only. The owning job of a step or schedule is
// resolved with a sub-query on pga_job, so a job inserted earlier in the same
// transaction can be referenced before its id is known.
package statement

import (
	"strings"
	"time"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/document"
	"github.com/andruche/pgagent-yaml/pgagent/flags"
	"github.com/andruche/pgagent-yaml/pgagent/reconcile"
)

// TimestampLayout is how schedule start/end are written into statements.
const TimestampLayout = "2006-01-02 15:04:05.999999-07:00"

var dimensions = map[string]*flags.Dimension{
	flags.Minutes.Name():   flags.Minutes,
	flags.Hours.Name():     flags.Hours,
	flags.MonthDays.Name(): flags.MonthDays,
	flags.Months.Name():    flags.Months,
	flags.Weekdays.Name():  flags.Weekdays,
}

// rawValue converts a canonical field value back to what the column stores.
func rawValue(field document.Field) (any, error) {
	switch v := field.Value.(type) {
	case document.StepKind:
		return v.Code()
	case document.OnError:
		return v.Code()
	case flags.Flag:
		dim, ok := dimensions[field.Name]
		if !ok {
			return nil, errors.Newf("no flag dimension for field %q", field.Name)
		}
		return flags.FormatBits(dim.Expand(v)), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Format(TimestampLayout), nil
	case string:
		if field.Name == document.FieldClass {
			return IDByName(JobClasses, v)
		}
		return v, nil
	}
	return field.Value, nil
}

type assignment struct {
	column string
	value  string
}

func assignments(t Table, fields []document.Field) ([]assignment, error) {
	out := make([]assignment, 0, len(fields))
	for _, f := range fields {
		col, err := t.Column(f.Name)
		if err != nil {
			return nil, err
		}
		raw, err := rawValue(f)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		lit, err := literal(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		out = append(out, assignment{col, lit})
	}
	return out, nil
}

// where builds the row filter: by name, and for child tables by owning job.
func where(t Table, name, job string) (string, error) {
	q, err := Quote(name)
	if err != nil {
		return "", err
	}
	clause := t.NameColumn + " = " + q
	if t.HasParent() {
		parent, err := IDByName(Jobs, job)
		if err != nil {
			return "", err
		}
		clause += " and " + t.JobColumn + " = " + string(parent)
	}
	return clause, nil
}

// Insert builds an insert of the row name with the given fields.
// job names the owning job and is ignored for the jobs table.
func Insert(t Table, name string, fields []document.Field, job string) (string, error) {
	nameLit, err := Quote(name)
	if err != nil {
		return "", err
	}
	set, err := assignments(t, fields)
	if err != nil {
		return "", err
	}
	columns := []string{t.NameColumn}
	values := []string{nameLit}
	for _, a := range set {
		columns = append(columns, a.column)
		values = append(values, a.value)
	}
	if t.HasParent() {
		parent, err := IDByName(Jobs, job)
		if err != nil {
			return "", err
		}
		columns = append(columns, t.JobColumn)
		values = append(values, string(parent))
	}
	return "insert into " + t.Name + "(" + strings.Join(columns, ", ") + ") values (" + strings.Join(values, ", ") + ");", nil
}

// Update sets only the given fields on the row name.
func Update(t Table, name string, fields []document.Field, job string) (string, error) {
	if len(fields) == 0 {
		return "", errors.Newf("%s %q: nothing to update", t.Name, name)
	}
	set, err := assignments(t, fields)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(set))
	for _, a := range set {
		parts = append(parts, a.column+" = "+a.value)
	}
	filter, err := where(t, name, job)
	if err != nil {
		return "", err
	}
	return "update " + t.Name + " set " + strings.Join(parts, ", ") + " where " + filter + ";", nil
}

// Delete removes the row name.
func Delete(t Table, name, job string) (string, error) {
	filter, err := where(t, name, job)
	if err != nil {
		return "", err
	}
	return "delete from " + t.Name + " where " + filter + ";", nil
}

// ForChange builds the statement of one classified change.
func ForChange(t Table, c reconcile.Change, job string) (string, error) {
	switch c.Action {
	case reconcile.ActionInsert:
		return Insert(t, c.Name, c.Fields, job)
	case reconcile.ActionUpdate:
		return Update(t, c.Name, c.Fields, job)
	case reconcile.ActionDelete:
		return Delete(t, c.Name, job)
	}
	return "", errors.Newf("unknown action %d", c.Action)
}

// ForJob returns the statements of one job diff: the job itself, then its steps,
// then its schedules.
func ForJob(d reconcile.JobDiff) ([]string, error) {
	var stmts []string
	if d.Job != nil {
		s, err := ForChange(Jobs, *d.Job, d.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "job %q", d.Name)
		}
		stmts = append(stmts, s)
	}
	for _, c := range d.Steps {
		s, err := ForChange(Steps, c, d.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "job %q: step %q", d.Name, c.Name)
		}
		stmts = append(stmts, s)
	}
	for _, c := range d.Schedules {
		s, err := ForChange(Schedules, c, d.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "job %q: schedule %q", d.Name, c.Name)
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}
