// Package duration converts between the catalog's ISO-8601 duration encoding
// (PT1H30M15S), total seconds, and the compact display form ("1h 30m").
//
// The ISO encoding is the source of truth; the display string is a lossy
// projection. Nothing here returns an error: unparseable input degrades to
// zero.
package duration

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoHours   = regexp.MustCompile(`(\d+)H`)
	isoMinutes = regexp.MustCompile(`(\d+)M`)
	isoSeconds = regexp.MustCompile(`(\d+)S`)

	displayHours   = regexp.MustCompile(`(\d+)h`)
	displayMinutes = regexp.MustCompile(`(\d+)m`)
	displaySeconds = regexp.MustCompile(`(\d+)s`)
)

// Seconds decodes an ISO-8601 duration into total seconds. Absent components
// contribute zero; malformed or empty input yields zero.
func Seconds(iso string) int {
	h, _ := component(isoHours, iso)
	m, _ := component(isoMinutes, iso)
	s, _ := component(isoSeconds, iso)
	return h*3600 + m*60 + s
}

// Display renders an ISO-8601 duration as a human string. Hours and minutes
// are rendered when present; seconds only when both hours and minutes are
// absent. Zero or unparseable input renders as "0s".
func Display(iso string) string {
	h, hasHours := component(isoHours, iso)
	m, hasMinutes := component(isoMinutes, iso)
	s, hasSeconds := component(isoSeconds, iso)

	var parts []string
	if hasHours {
		parts = append(parts, strconv.Itoa(h)+"h")
	}
	if hasMinutes {
		parts = append(parts, strconv.Itoa(m)+"m")
	}
	if hasSeconds && !hasHours && !hasMinutes {
		parts = append(parts, strconv.Itoa(s)+"s")
	}

	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// DisplaySeconds decodes the human display form back into total seconds.
// Needed for legacy records that persisted only the display string, not the
// raw encoding. Malformed input yields zero.
func DisplaySeconds(display string) int {
	h, _ := component(displayHours, display)
	m, _ := component(displayMinutes, display)
	s, _ := component(displaySeconds, display)
	return h*3600 + m*60 + s
}

func component(re *regexp.Regexp, s string) (int, bool) {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
