package afk

import (
	"fmt"
	"strings"
	"time"
)

var durationUnits = []struct {
	label string
	ms    int64
}{
	{"day", 1000 * 60 * 60 * 24},
	{"hour", 1000 * 60 * 60},
	{"minute", 1000 * 60},
	{"second", 1000},
}

// FormatDuration renders a duration as "2 days, 3 hours, 1 minute",
// omitting zero units. Sub-second durations come out as "0 seconds".
func FormatDuration(d time.Duration) string {
	remaining := d.Milliseconds()
	var parts []string

	for _, u := range durationUnits {
		if remaining >= u.ms {
			value := remaining / u.ms
			remaining -= value * u.ms
			label := u.label
			if value != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", value, label))
		}
	}

	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
