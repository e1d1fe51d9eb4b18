// Package document holds the canonical, name-keyed form of pgAgent jobs and
// the normalizer that builds it from raw pga_job / pga_jobstep / pga_schedule rows.
//
// Numeric identifiers never appear in the canonical form: names are the
// identity that stays stable across environments.
package document

import (
	"sort"
	"strings"
	"time"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/flags"
)

// DefaultJobClass is the class pgAgent installs for ordinary jobs.
const DefaultJobClass = "Routine Maintenance"

// Job is one pgAgent job with its steps and schedules.
type Job struct {
	Enabled     bool                 `yaml:"enabled"`
	Description string               `yaml:"description"`
	Class       string               `yaml:"class,omitempty"`
	Schedules   map[string]*Schedule `yaml:"schedules"`
	Steps       map[string]*Step     `yaml:"steps"`

	// keys names the fields a document mentions; nil means all of them.
	keys map[string]bool
}

// Step is one unit of work of a job.
type Step struct {
	Enabled          bool     `yaml:"enabled"`
	Description      string   `yaml:"description"`
	Kind             StepKind `yaml:"kind"`
	OnError          OnError  `yaml:"on_error"`
	ConnectionString string   `yaml:"connection_string"`
	LocalDatabase    string   `yaml:"local_database"`
	Code             string   `yaml:"code"`

	keys map[string]bool
}

// Schedule is one time-based trigger of a job.
// Start and End take part in comparisons only when HasStart and HasEnd are set.
type Schedule struct {
	Description string
	Enabled     bool
	HasStart    bool
	HasEnd      bool
	Start       *time.Time
	End         *time.Time
	Minutes     flags.Flag
	Hours       flags.Flag
	MonthDays   flags.Flag
	Months      flags.Flag
	Weekdays    flags.Flag
}

// NameKey is the form under which two names are considered the same.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SortedNames returns the keys of m in ascending order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckNames fails when two names collide after trimming and case-folding.
func CheckNames[V any](scope string, m map[string]V) error {
	seen := make(map[string]string, len(m))
	for _, name := range SortedNames(m) {
		key := NameKey(name)
		if key == "" {
			return errors.Mark(errors.Newf("%s: empty name", scope), errors.ErrInvalidDocument)
		}
		if other, ok := seen[key]; ok {
			return errors.Mark(
				errors.Newf("%s: names %q and %q collide", scope, other, name),
				errors.ErrDuplicateName,
			)
		}
		seen[key] = name
	}
	return nil
}

// Prepare validates a job read from a document and puts it in canonical form:
// class defaults to defaultClass, flag sets are canonicalized, nil maps become empty.
func (j *Job) Prepare(name, defaultClass string) error {
	if j.Class == "" {
		j.Class = defaultClass
	}
	j.keys = markPresent(j.keys, jobFieldNames, FieldClass)
	if j.Steps == nil {
		j.Steps = map[string]*Step{}
	}
	if j.Schedules == nil {
		j.Schedules = map[string]*Schedule{}
	}
	if err := CheckNames(name+"/steps", j.Steps); err != nil {
		return err
	}
	if err := CheckNames(name+"/schedules", j.Schedules); err != nil {
		return err
	}
	for _, stepName := range SortedNames(j.Steps) {
		step := j.Steps[stepName]
		if step == nil {
			return errors.Mark(errors.Newf("step %q is empty", stepName), errors.ErrInvalidDocument)
		}
		if _, err := step.Kind.Code(); err != nil {
			return errors.Wrapf(err, "step %q", stepName)
		}
		if _, err := step.OnError.Code(); err != nil {
			return errors.Wrapf(err, "step %q", stepName)
		}
	}
	for _, scheduleName := range SortedNames(j.Schedules) {
		schedule := j.Schedules[scheduleName]
		if schedule == nil {
			return errors.Mark(errors.Newf("schedule %q is empty", scheduleName), errors.ErrInvalidDocument)
		}
		if err := schedule.canonicalize(); err != nil {
			return errors.Wrapf(err, "schedule %q", scheduleName)
		}
	}
	return nil
}

func (s *Schedule) flagSets() []struct {
	dim  *flags.Dimension
	flag *flags.Flag
} {
	return []struct {
		dim  *flags.Dimension
		flag *flags.Flag
	}{
		{flags.Minutes, &s.Minutes},
		{flags.Hours, &s.Hours},
		{flags.MonthDays, &s.MonthDays},
		{flags.Months, &s.Months},
		{flags.Weekdays, &s.Weekdays},
	}
}

func (s *Schedule) canonicalize() error {
	for _, fs := range s.flagSets() {
		if err := fs.dim.Validate(*fs.flag); err != nil {
			return err
		}
		*fs.flag = fs.dim.Canonical(*fs.flag)
	}
	return nil
}

// HasPeriod reports whether any schedule of any job carries start/end fields.
func HasPeriod(jobs map[string]*Job) bool {
	for _, job := range jobs {
		for _, schedule := range job.Schedules {
			if schedule.HasPeriod() {
				return true
			}
		}
	}
	return false
}
