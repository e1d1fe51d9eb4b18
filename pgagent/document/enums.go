package document

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
)

// StepKind is what a step runs.
type StepKind string

const (
	KindSQL   StepKind = "sql"
	KindBatch StepKind = "batch"
)

// OnError is the step failure policy.
type OnError string

const (
	OnErrorSuccess OnError = "success"
	OnErrorFail    OnError = "fail"
	OnErrorIgnore  OnError = "ignore"
)

// codeTable maps single-character server codes to canonical names and back.
// The inverse is derived from the forward map so both directions always agree.
type codeTable[T ~string] struct {
	name      string
	canonical map[string]T
	raw       map[T]string
}

func newCodeTable[T ~string](name string, forward map[string]T) codeTable[T] {
	t := codeTable[T]{name: name, canonical: forward, raw: make(map[T]string, len(forward))}
	for code, value := range forward {
		if _, dup := t.raw[value]; dup {
			panic(fmt.Sprintf("document: %s value %q mapped twice", name, value))
		}
		t.raw[value] = code
	}
	return t
}

func (t codeTable[T]) fromCode(code string) (T, error) {
	v, ok := t.canonical[code]
	if !ok {
		return "", errors.Mark(
			errors.Newf("unknown %s code %q", t.name, code),
			errors.ErrUnsupportedCode,
		)
	}
	return v, nil
}

func (t codeTable[T]) code(v T) (string, error) {
	c, ok := t.raw[v]
	if !ok {
		return "", errors.Mark(
			errors.Newf("unknown %s %q (expected one of: %s)", t.name, v, t.names()),
			errors.ErrInvalidDocument,
		)
	}
	return c, nil
}

func (t codeTable[T]) names() string {
	names := make([]string, 0, len(t.raw))
	for v := range t.raw {
		names = append(names, string(v))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (t codeTable[T]) decode(node *yaml.Node) (T, error) {
	var s string
	if err := node.Decode(&s); err != nil {
		return "", err
	}
	v := T(s)
	if _, err := t.code(v); err != nil {
		return "", errors.Wrapf(err, "line %d", node.Line)
	}
	return v, nil
}

var (
	stepKinds = newCodeTable("kind", map[string]StepKind{
		"s": KindSQL,
		"b": KindBatch,
	})
	onErrors = newCodeTable("on_error", map[string]OnError{
		"s": OnErrorSuccess,
		"f": OnErrorFail,
		"i": OnErrorIgnore,
	})
)

// StepKindFromCode translates a jstkind value.
func StepKindFromCode(code string) (StepKind, error) { return stepKinds.fromCode(code) }

// Code returns the jstkind value.
func (k StepKind) Code() (string, error) { return stepKinds.code(k) }

// UnmarshalYAML rejects unknown kinds.
func (k *StepKind) UnmarshalYAML(node *yaml.Node) error {
	v, err := stepKinds.decode(node)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// OnErrorFromCode translates a jstonerror value.
func OnErrorFromCode(code string) (OnError, error) { return onErrors.fromCode(code) }

// Code returns the jstonerror value.
func (o OnError) Code() (string, error) { return onErrors.code(o) }

// UnmarshalYAML rejects unknown policies.
func (o *OnError) UnmarshalYAML(node *yaml.Node) error {
	v, err := onErrors.decode(node)
	if err != nil {
		return err
	}
	*o = v
	return nil
}
