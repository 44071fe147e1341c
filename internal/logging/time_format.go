package logging

import "time"

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
