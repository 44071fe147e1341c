package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// msValue rounds a millisecond position to microsecond precision for output.
func msValue(ms float64) float64 {
	return float64(int64(ms*1000+0.5)) / 1000
}
