package apply

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andruche/pgagent-yaml/errors"
)

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// LinePrompter reads one answer line from In; only "y" confirms.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Confirm prints question without a newline and reads the answer.
func (p *LinePrompter) Confirm(question string) (bool, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if _, err := fmt.Fprint(p.Out, question); err != nil {
		return false, err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "failed to read answer")
	}
	return strings.TrimRight(line, "\r\n") == "y", nil
}

// Confirmed is a Prompter that always answers yes.
type Confirmed struct{}

func (Confirmed) Confirm(string) (bool, error) { return true, nil }
