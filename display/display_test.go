package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldOutputJSON(t *testing.T) {
	assert.False(t, ShouldOutputJSON(nil))

	cmd := &cobra.Command{Use: "version"}
	cmd.Flags().Bool("json", false, "")
	assert.False(t, ShouldOutputJSON(cmd))
	require.NoError(t, cmd.Flags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(cmd))

	show := &cobra.Command{Use: "show"}
	show.Flags().String("format", "toml", "")
	assert.False(t, ShouldOutputJSON(show))
	require.NoError(t, show.Flags().Set("format", "json"))
	assert.True(t, ShouldOutputJSON(show))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())

	err := WriteJSON(&buf, func() {})
	require.Error(t, err)
}
