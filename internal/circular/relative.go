package circular

import (
	"fmt"
	"time"
)

var relativeUnits = []struct {
	name    string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

// RelativeTime renders t relative to now the way board cards show it,
// e.g. "3 days ago". Future and identical timestamps read "Just now".
func RelativeTime(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	for _, u := range relativeUnits {
		n := seconds / u.seconds
		if n < 1 {
			continue
		}
		if n == 1 {
			return fmt.Sprintf("1 %s ago", u.name)
		}
		return fmt.Sprintf("%d %ss ago", n, u.name)
	}
	return "Just now"
}

// IsNew reports whether publishedAt falls after the viewer's previous visit.
// Without a previous visit everything is new.
func IsNew(publishedAt time.Time, lastVisit *time.Time) bool {
	if lastVisit == nil {
		return true
	}
	return publishedAt.After(*lastVisit)
}
