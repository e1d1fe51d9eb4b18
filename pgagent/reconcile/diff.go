// Package reconcile computes the minimal difference between a source job tree
// and the live one, and renders it for the operator.
package reconcile

import (
	"sort"

	"github.com/andruche/pgagent-yaml/pgagent/document"
)

// Scope decides which job names are considered.
type Scope int

const (
	// ScopeUnit: the source is a single job document; live-only jobs are left alone.
	ScopeUnit Scope = iota
	// ScopeCollection: the source is the full set; live-only jobs are deleted.
	ScopeCollection
)

func (s Scope) String() string {
	if s == ScopeCollection {
		return "collection"
	}
	return "unit"
}

// Action is what a change does to its row.
type Action int

const (
	ActionInsert Action = iota + 1
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Change is one row-level action. Fields holds every field for an insert,
// only the differing source fields for an update and nothing for a delete.
type Change struct {
	Name   string
	Action Action
	Fields []document.Field
}

// JobDiff pairs the source and live form of one job with the actions they need.
// Source or Live is nil when the job exists on one side only.
type JobDiff struct {
	Name      string
	Source    *document.Job
	Live      *document.Job
	Job       *Change
	Steps     []Change
	Schedules []Change
}

// Empty reports whether the job needs no statement.
func (d JobDiff) Empty() bool {
	return d.Job == nil && len(d.Steps) == 0 && len(d.Schedules) == 0
}

// Compute returns the jobs that need action, sorted by name.
// The inputs are never modified.
func Compute(source, live map[string]*document.Job, scope Scope) []JobDiff {
	names := document.SortedNames(source)
	if scope == ScopeCollection {
		names = union(source, live)
	}

	var diffs []JobDiff
	for _, name := range names {
		d := compareJob(name, source[name], live[name])
		if !d.Empty() {
			diffs = append(diffs, d)
		}
	}
	return diffs
}

func compareJob(name string, src, live *document.Job) JobDiff {
	d := JobDiff{Name: name, Source: src, Live: live}
	switch {
	case src == nil && live == nil:
		return d
	case src == nil:
		// Children go with the cascading delete.
		d.Job = &Change{Name: name, Action: ActionDelete}
		return d
	case live == nil:
		d.Job = &Change{Name: name, Action: ActionInsert, Fields: src.Fields()}
		d.Steps = compareItems(src.Steps, nil)
		d.Schedules = compareItems(src.Schedules, nil)
		return d
	}

	if fields := changedFields(src, live); len(fields) > 0 {
		d.Job = &Change{Name: name, Action: ActionUpdate, Fields: fields}
	}
	d.Steps = compareItems(src.Steps, live.Steps)
	d.Schedules = compareItems(src.Schedules, live.Schedules)
	return d
}

// compareItems classifies every item name of either side, omitting identical items.
func compareItems[R document.Record](src, live map[string]R) []Change {
	var changes []Change
	for _, name := range union(src, live) {
		s, inSource := src[name]
		l, inLive := live[name]
		switch {
		case inSource && !inLive:
			changes = append(changes, Change{Name: name, Action: ActionInsert, Fields: s.Fields()})
		case !inSource && inLive:
			changes = append(changes, Change{Name: name, Action: ActionDelete})
		default:
			if fields := changedFields(s, l); len(fields) > 0 {
				changes = append(changes, Change{Name: name, Action: ActionUpdate, Fields: fields})
			}
		}
	}
	return changes
}

// changedFields returns the source fields whose live value differs or is missing.
// Fields the source does not carry are not compared.
func changedFields(src, live document.Record) []document.Field {
	liveFields := live.Fields()
	var out []document.Field
	for _, f := range src.Fields() {
		if v, ok := document.Lookup(liveFields, f.Name); ok && document.ValuesEqual(f.Value, v) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func union[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for name := range a {
		seen[name] = struct{}{}
	}
	for name := range b {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
