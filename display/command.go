// Package display holds output helpers shared by the commands.
package display

import (
	"github.com/spf13/cobra"
)

// ShouldOutputJSON reports whether cmd was asked for JSON, either through a
// --json flag or --format json
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
		return true
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Value.String() == "json" {
		return true
	}
	return false
}
