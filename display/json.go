package display

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/andruche/pgagent-yaml/errors"
)

// MarshalJSON marshals v with two-space indentation
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// WriteJSON marshals v and writes it to w followed by a newline
func WriteJSON(w io.Writer, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
