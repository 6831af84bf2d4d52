package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses an HH:MM:SS schedule time into an offset from midnight.
// Hours are not bounded: "25:10:00" is one hour and ten minutes past the
// following midnight and is returned as 25h10m, never wrapped. Minutes and
// seconds past 59 carry over ("10:75:00" is 11h15m).
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q: expected HH:MM:SS", s)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
		fields[i] = n
	}
	hours, minutes, seconds := fields[0], fields[1], fields[2]

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// FormatClock renders an offset from midnight as HH:MM:SS. Offsets past 24h
// keep their hour count ("25:10:00").
func FormatClock(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total/60)%60, total%60)
}
