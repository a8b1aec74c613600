package alarm

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize/english"
)

// NoAlarmMessage is shown when nothing is scheduled.
const NoAlarmMessage = "No alarm is set."

// Message renders the time until next, e.g. "The alarm is set for 1 day
// 2 hours and 3 minutes from now." Days and hours are omitted when zero;
// partial minutes are dropped.
func Message(next *time.Time, now time.Time) string {
	if next == nil {
		return NoAlarmMessage
	}

	d := next.Sub(now)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	var b strings.Builder
	b.WriteString("The alarm is set for ")
	if days > 0 {
		b.WriteString(english.Plural(days, "day", "days") + " ")
	}
	if hours > 0 {
		b.WriteString(english.Plural(hours, "hour", "hours") + " and ")
	}
	b.WriteString(english.Plural(minutes, "minute", "minutes") + " from now.")
	return b.String()
}
