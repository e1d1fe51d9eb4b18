package reconcile

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/pgagent/document"
)

const (
	keySteps     = "steps"
	keySchedules = "schedules"
)

// Render writes a line diff of the live (before) and source (after) documents
// of every job. Keys that are equal on both sides are left out.
func Render(w io.Writer, diffs []JobDiff) error {
	for _, d := range diffs {
		before, err := renderSide(d.Name, d.Live, d.keys())
		if err != nil {
			return errors.Wrapf(err, "job %q", d.Name)
		}
		after, err := renderSide(d.Name, d.Source, d.keys())
		if err != nil {
			return errors.Wrapf(err, "job %q", d.Name)
		}
		if _, err := io.WriteString(w, colorDiff(before, after)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// keys returns the top-level document keys that differ, or nil when the whole
// document is shown (insert or delete).
func (d JobDiff) keys() map[string]bool {
	if d.Source == nil || d.Live == nil {
		return nil
	}
	keys := map[string]bool{}
	if d.Job != nil {
		for _, f := range d.Job.Fields {
			keys[f.Name] = true
		}
	}
	if len(d.Steps) > 0 {
		keys[keySteps] = true
	}
	if len(d.Schedules) > 0 {
		keys[keySchedules] = true
	}
	return keys
}

func renderSide(name string, job *document.Job, keys map[string]bool) ([]string, error) {
	if job == nil {
		return nil, nil
	}
	var body yaml.Node
	if err := body.Encode(job); err != nil {
		return nil, err
	}
	if keys != nil && body.Kind == yaml.MappingNode {
		var kept []*yaml.Node
		for i := 0; i+1 < len(body.Content); i += 2 {
			if keys[body.Content[i].Value] {
				kept = append(kept, body.Content[i], body.Content[i+1])
			}
		}
		body.Content = kept
	}
	var key yaml.Node
	if err := key.Encode(name); err != nil {
		return nil, err
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{&key, &body}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}

func colorDiff(before, after []string) string {
	var sb strings.Builder
	m := difflib.NewMatcher(before, after)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, line := range before[op.I1:op.I2] {
				fmt.Fprintf(&sb, "  %s\n", line)
			}
		default:
			for _, line := range before[op.I1:op.I2] {
				sb.WriteString(pterm.FgRed.Sprint("- "+line) + "\n")
			}
			for _, line := range after[op.J1:op.J2] {
				sb.WriteString(pterm.FgGreen.Sprint("+ "+line) + "\n")
			}
		}
	}
	return sb.String()
}
