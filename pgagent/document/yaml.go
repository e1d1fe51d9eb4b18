package document

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/flags"
)

const (
	keySchedules = "schedules"
	keySteps     = "steps"
)

var (
	jobFieldNames  = []string{FieldEnabled, FieldDescription, FieldClass}
	stepFieldNames = []string{
		FieldEnabled, FieldDescription, FieldKind, FieldOnError,
		FieldConnectionString, FieldLocalDatabase, FieldCode,
	}

	jobKeys      = keySet(append([]string{keySchedules, keySteps}, jobFieldNames...)...)
	stepKeys     = keySet(stepFieldNames...)
	scheduleKeys = keySet(
		FieldDescription, FieldEnabled, FieldStart, FieldEnd,
		FieldMinutes, FieldHours, FieldMonthDays, FieldMonths, FieldWeekdays,
	)
)

func keySet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}

// checkKeys rejects mapping keys outside allowed.
// node.Decode does not inherit the decoder's KnownFields, so custom unmarshalers check themselves.
func checkKeys(node *yaml.Node, allowed map[string]bool, scope string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !allowed[key.Value] {
			return errors.Mark(
				errors.Newf("line %d: field %s not found in %s", key.Line, key.Value, scope),
				errors.ErrInvalidDocument,
			)
		}
	}
	return nil
}

// presentKeys returns the subset of names the mapping mentions, or nil when it mentions all of them.
func presentKeys(node *yaml.Node, names []string) map[string]bool {
	present := map[string]bool{}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			present[node.Content[i].Value] = true
		}
	}
	keys := make(map[string]bool, len(names))
	for _, name := range names {
		if present[name] {
			keys[name] = true
		}
	}
	if len(keys) == len(names) {
		return nil
	}
	return keys
}

// textNode renders s as a string scalar that reads back unchanged.
// yaml.v3 drops a leading line break of literal blocks, so those go double-quoted.
func textNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.HasPrefix(s, "\n") || (strings.ContainsAny(s, "\r\n") && !readsBack(n)) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func readsBack(n *yaml.Node) bool {
	data, err := yaml.Marshal(n)
	if err != nil {
		return false
	}
	var back string
	return yaml.Unmarshal(data, &back) == nil && back == n.Value
}

func timeNode(t *time.Time) *yaml.Node {
	if t == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: t.Format(time.RFC3339Nano)}
}

func boolPtr(b bool) *bool { return &b }

type jobDoc struct {
	Enabled     *bool                `yaml:"enabled,omitempty"`
	Description *yaml.Node           `yaml:"description,omitempty"`
	Class       *yaml.Node           `yaml:"class,omitempty"`
	Schedules   map[string]*Schedule `yaml:"schedules"`
	Steps       map[string]*Step     `yaml:"steps"`
}

// MarshalYAML writes the keys the job carries; an empty class is left out.
func (j *Job) MarshalYAML() (interface{}, error) {
	doc := jobDoc{Schedules: j.Schedules, Steps: j.Steps}
	if j.has(FieldEnabled) {
		doc.Enabled = boolPtr(j.Enabled)
	}
	if j.has(FieldDescription) {
		doc.Description = textNode(j.Description)
	}
	if j.has(FieldClass) && j.Class != "" {
		doc.Class = textNode(j.Class)
	}
	return doc, nil
}

// UnmarshalYAML rejects unknown keys and records which fields the document mentions.
func (j *Job) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, jobKeys, "job"); err != nil {
		return err
	}
	type plain Job
	var doc plain
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*j = Job(doc)
	j.keys = presentKeys(node, jobFieldNames)
	return nil
}

type stepDoc struct {
	Enabled          *bool      `yaml:"enabled,omitempty"`
	Description      *yaml.Node `yaml:"description,omitempty"`
	Kind             StepKind   `yaml:"kind,omitempty"`
	OnError          OnError    `yaml:"on_error,omitempty"`
	ConnectionString *yaml.Node `yaml:"connection_string,omitempty"`
	LocalDatabase    *yaml.Node `yaml:"local_database,omitempty"`
	Code             *yaml.Node `yaml:"code,omitempty"`
}

// MarshalYAML writes the keys the step carries.
func (s *Step) MarshalYAML() (interface{}, error) {
	var doc stepDoc
	if s.has(FieldEnabled) {
		doc.Enabled = boolPtr(s.Enabled)
	}
	if s.has(FieldDescription) {
		doc.Description = textNode(s.Description)
	}
	if s.has(FieldKind) {
		doc.Kind = s.Kind
	}
	if s.has(FieldOnError) {
		doc.OnError = s.OnError
	}
	if s.has(FieldConnectionString) {
		doc.ConnectionString = textNode(s.ConnectionString)
	}
	if s.has(FieldLocalDatabase) {
		doc.LocalDatabase = textNode(s.LocalDatabase)
	}
	if s.has(FieldCode) {
		doc.Code = textNode(s.Code)
	}
	return doc, nil
}

// UnmarshalYAML rejects unknown keys and records which fields the document mentions.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, stepKeys, "step"); err != nil {
		return err
	}
	type plain Step
	var doc plain
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*s = Step(doc)
	s.keys = presentKeys(node, stepFieldNames)
	return nil
}

// scheduleDoc is the on-disk layout of a schedule; start and end appear only when carried.
type scheduleDoc struct {
	Description *yaml.Node `yaml:"description"`
	Enabled     bool       `yaml:"enabled"`
	Start       *yaml.Node `yaml:"start,omitempty"`
	End         *yaml.Node `yaml:"end,omitempty"`
	Minutes     flags.Flag `yaml:"minutes,omitempty"`
	Hours       flags.Flag `yaml:"hours,omitempty"`
	MonthDays   flags.Flag `yaml:"monthdays,omitempty"`
	Months      flags.Flag `yaml:"months,omitempty"`
	Weekdays    flags.Flag `yaml:"weekdays,omitempty"`
}

type scheduleInput struct {
	Description string     `yaml:"description"`
	Enabled     bool       `yaml:"enabled"`
	Start       *time.Time `yaml:"start"`
	End         *time.Time `yaml:"end"`
	Minutes     flags.Flag `yaml:"minutes"`
	Hours       flags.Flag `yaml:"hours"`
	MonthDays   flags.Flag `yaml:"monthdays"`
	Months      flags.Flag `yaml:"months"`
	Weekdays    flags.Flag `yaml:"weekdays"`
}

// MarshalYAML writes start and end only for schedules that carry them.
// A carried but missing end is written as an explicit null.
func (s *Schedule) MarshalYAML() (interface{}, error) {
	doc := scheduleDoc{
		Description: textNode(s.Description),
		Enabled:     s.Enabled,
		Minutes:     s.Minutes,
		Hours:       s.Hours,
		MonthDays:   s.MonthDays,
		Months:      s.Months,
		Weekdays:    s.Weekdays,
	}
	if s.HasStart {
		doc.Start = timeNode(s.Start)
	}
	if s.HasEnd {
		doc.End = timeNode(s.End)
	}
	return doc, nil
}

// UnmarshalYAML records whether the document mentions start and end.
func (s *Schedule) UnmarshalYAML(node *yaml.Node) error {
	if err := checkKeys(node, scheduleKeys, "schedule"); err != nil {
		return err
	}
	var doc scheduleInput
	if err := node.Decode(&doc); err != nil {
		return err
	}
	*s = Schedule{
		Description: doc.Description,
		Enabled:     doc.Enabled,
		Start:       doc.Start,
		End:         doc.End,
		Minutes:     doc.Minutes,
		Hours:       doc.Hours,
		MonthDays:   doc.MonthDays,
		Months:      doc.Months,
		Weekdays:    doc.Weekdays,
	}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case FieldStart:
				s.HasStart = true
			case FieldEnd:
				s.HasEnd = true
			}
		}
	}
	return nil
}
