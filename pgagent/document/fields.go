package document

import (
	"time"

	"github.com/andruche/pgagent-yaml/pgagent/flags"
)

// Field is one named scalar attribute of a job, step or schedule, in canonical form.
// Values are bool, string, StepKind, OnError, flags.Flag, *time.Time or nil.
type Field struct {
	Name  string
	Value any
}

// Record is anything that exposes its scalar attributes as an ordered field list.
// Nested collections (steps, schedules) are never part of it.
type Record interface {
	Fields() []Field
}

// Canonical field names
const (
	FieldEnabled          = "enabled"
	FieldDescription      = "description"
	FieldClass            = "class"
	FieldKind             = "kind"
	FieldOnError          = "on_error"
	FieldConnectionString = "connection_string"
	FieldLocalDatabase    = "local_database"
	FieldCode             = "code"
	FieldStart            = "start"
	FieldEnd              = "end"
	FieldMinutes          = "minutes"
	FieldHours            = "hours"
	FieldMonthDays        = "monthdays"
	FieldMonths           = "months"
	FieldWeekdays         = "weekdays"
)

// Fields of a job, excluding steps and schedules. Keys absent from the
// source document are left out.
func (j *Job) Fields() []Field {
	return onlyKeys(j.keys, []Field{
		{FieldEnabled, j.Enabled},
		{FieldDescription, j.Description},
		{FieldClass, j.Class},
	})
}

// Fields of a step.
func (s *Step) Fields() []Field {
	return onlyKeys(s.keys, []Field{
		{FieldEnabled, s.Enabled},
		{FieldDescription, s.Description},
		{FieldKind, s.Kind},
		{FieldOnError, s.OnError},
		{FieldConnectionString, s.ConnectionString},
		{FieldLocalDatabase, s.LocalDatabase},
		{FieldCode, s.Code},
	})
}

// Fields of a schedule. Start and end appear only when carried, flag sets only when set.
func (s *Schedule) Fields() []Field {
	fields := []Field{
		{FieldDescription, s.Description},
		{FieldEnabled, s.Enabled},
	}
	if s.HasStart {
		fields = append(fields, Field{FieldStart, s.Start})
	}
	if s.HasEnd {
		fields = append(fields, Field{FieldEnd, s.End})
	}
	for _, fs := range s.flagSets() {
		if fs.flag.IsSet() {
			fields = append(fields, Field{fs.dim.Name(), *fs.flag})
		}
	}
	return fields
}

// Lookup returns the value of the named field and whether it is present.
func Lookup(fields []Field, name string) (any, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ValuesEqual compares two canonical field values.
func ValuesEqual(a, b any) bool {
	switch av := a.(type) {
	case flags.Flag:
		bv, ok := b.(flags.Flag)
		return ok && av.Equal(bv)
	case *time.Time:
		bv, ok := b.(*time.Time)
		if !ok {
			return av == nil && b == nil
		}
		if av == nil || bv == nil {
			return av == nil && bv == nil
		}
		return av.Equal(*bv)
	case nil:
		if bt, ok := b.(*time.Time); ok {
			return bt == nil
		}
		return b == nil
	default:
		return a == b
	}
}

// HasPeriod reports whether the schedule carries start or end.
func (s *Schedule) HasPeriod() bool { return s.HasStart || s.HasEnd }

func (j *Job) has(name string) bool { return j.keys == nil || j.keys[name] }
func (s *Step) has(name string) bool { return s.keys == nil || s.keys[name] }

func onlyKeys(keys map[string]bool, fields []Field) []Field {
	if keys == nil {
		return fields
	}
	out := make([]Field, 0, len(keys))
	for _, f := range fields {
		if keys[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// markPresent adds name to keys, collapsing a complete set to nil.
func markPresent(keys map[string]bool, all []string, name string) map[string]bool {
	if keys == nil {
		return nil
	}
	keys[name] = true
	if len(keys) == len(all) {
		return nil
	}
	return keys
}
