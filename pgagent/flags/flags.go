// Package flags encodes pgAgent schedule bitsets (minutes, hours, month days,
// months, weekdays) in the compact document notation and back.
//
// A flag set is written as "*" when every position is set, "-" when none is,
// and otherwise as the list of labels whose position is set, in label order.
package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andruche/pgagent-yaml/errors"
)

// Kind is the compact form of a flag set.
type Kind int

const (
	// KindUnset means the document does not mention the flag set
	KindUnset Kind = iota
	KindAll
	KindNone
	KindSubset
)

// Compact notation tokens
const (
	AllToken  = "*"
	NoneToken = "-"
)

// Flag is a flag set in compact form. The zero value is unset.
type Flag struct {
	kind   Kind
	labels []string
}

// All returns the flag with every position set.
func All() Flag { return Flag{kind: KindAll} }

// None returns the flag with no position set.
func None() Flag { return Flag{kind: KindNone} }

// Subset returns a flag listing the given labels as written.
// An empty list is None. Use Dimension.Canonical to reorder and collapse it.
func Subset(labels ...string) Flag {
	if len(labels) == 0 {
		return None()
	}
	return Flag{kind: KindSubset, labels: append([]string(nil), labels...)}
}

// Kind reports the compact form.
func (f Flag) Kind() Kind { return f.kind }

// IsSet reports whether the flag was given at all.
func (f Flag) IsSet() bool { return f.kind != KindUnset }

// Labels returns a copy of the subset labels (nil for All, None and unset).
func (f Flag) Labels() []string {
	if f.kind != KindSubset {
		return nil
	}
	return append([]string(nil), f.labels...)
}

// Equal compares compact forms label by label.
func (f Flag) Equal(o Flag) bool {
	if f.kind != o.kind || len(f.labels) != len(o.labels) {
		return false
	}
	for i := range f.labels {
		if f.labels[i] != o.labels[i] {
			return false
		}
	}
	return true
}

func (f Flag) String() string {
	switch f.kind {
	case KindAll:
		return AllToken
	case KindNone:
		return NoneToken
	case KindSubset:
		return "[" + strings.Join(f.labels, ", ") + "]"
	default:
		return "<unset>"
	}
}

// Dimension is one scheduling axis: a fixed, ordered list of position labels.
type Dimension struct {
	name   string
	labels []string
	index  map[string]int
}

// NewDimension builds a dimension. Labels must be unique.
func NewDimension(name string, labels ...string) *Dimension {
	d := &Dimension{name: name, labels: labels, index: make(map[string]int, len(labels))}
	for i, label := range labels {
		if _, dup := d.index[label]; dup {
			panic(fmt.Sprintf("flags: duplicate label %q in dimension %s", label, name))
		}
		d.index[label] = i
	}
	return d
}

// Name of the dimension (document field name).
func (d *Dimension) Name() string { return d.name }

// Len is the vector length.
func (d *Dimension) Len() int { return len(d.labels) }

// Labels returns a copy of the position labels.
func (d *Dimension) Labels() []string { return append([]string(nil), d.labels...) }

// Compact derives the compact form of a bit vector.
// bits must have exactly Len() entries; anything else is a programming error.
func (d *Dimension) Compact(bits []bool) Flag {
	d.mustMatch(bits)
	set := 0
	for _, b := range bits {
		if b {
			set++
		}
	}
	switch set {
	case len(bits):
		return All()
	case 0:
		return None()
	}
	labels := make([]string, 0, set)
	for i, b := range bits {
		if b {
			labels = append(labels, d.labels[i])
		}
	}
	return Flag{kind: KindSubset, labels: labels}
}

// Expand turns a compact form back into a bit vector.
// Unset expands like None; labels outside the dimension are ignored (see Validate).
func (d *Dimension) Expand(f Flag) []bool {
	bits := make([]bool, len(d.labels))
	switch f.kind {
	case KindAll:
		for i := range bits {
			bits[i] = true
		}
	case KindSubset:
		for _, label := range f.labels {
			if i, ok := d.index[label]; ok {
				bits[i] = true
			}
		}
	}
	return bits
}

// Validate rejects subset labels that are not positions of the dimension.
func (d *Dimension) Validate(f Flag) error {
	for _, label := range f.Labels() {
		if _, ok := d.index[label]; !ok {
			return errors.Mark(
				errors.Newf("%s: unknown label %q", d.name, label),
				errors.ErrInvalidDocument,
			)
		}
	}
	return nil
}

// Canonical rewrites f so that equal bit vectors have equal compact forms:
// a full list becomes "*", labels are put in dimension order and deduplicated.
func (d *Dimension) Canonical(f Flag) Flag {
	if !f.IsSet() {
		return f
	}
	return d.Compact(d.Expand(f))
}

func (d *Dimension) mustMatch(bits []bool) {
	if len(bits) != len(d.labels) {
		panic(fmt.Sprintf("flags: %s expects %d positions, got %d", d.name, len(d.labels), len(bits)))
	}
}

// FormatBits renders a vector as a PostgreSQL boolean array literal, e.g. {t,f,f}.
func FormatBits(bits []bool) string {
	var sb strings.Builder
	sb.Grow(2*len(bits) + 1)
	sb.WriteByte('{')
	for i, b := range bits {
		if i > 0 {
			sb.WriteByte(',')
		}
		if b {
			sb.WriteByte('t')
		} else {
			sb.WriteByte('f')
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func numberLabels(from, to int) []string {
	labels := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		labels = append(labels, strconv.Itoa(i))
	}
	return labels
}

// LastDay is the month-day sentinel stored after position 31.
const LastDay = "last day"

// The five pgAgent schedule dimensions.
var (
	Minutes   = NewDimension("minutes", numberLabels(0, 59)...)
	Hours     = NewDimension("hours", numberLabels(0, 23)...)
	MonthDays = NewDimension("monthdays", append(numberLabels(1, 31), LastDay)...)
	Months    = NewDimension("months", numberLabels(1, 12)...)
	Weekdays  = NewDimension("weekdays",
		"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday")
)
