package feed

import (
	"strings"
)

// ParseDuration converts an itunes:duration token ("90", "1:30",
// "1:01:01") into whole seconds. It never fails: unreadable fields count
// as zero and more than three fields yield zero.
func ParseDuration(token string) int {
	if token == "" {
		return 0
	}

	parts := strings.Split(token, ":")
	fields := make([]int, len(parts))
	for i, part := range parts {
		fields[i] = parseField(part)
	}

	switch len(fields) {
	case 1:
		return fields[0]
	case 2:
		return fields[0]*60 + fields[1]
	case 3:
		return fields[0]*3600 + fields[1]*60 + fields[2]
	default:
		return 0
	}
}

// parseField reads the leading decimal digits of s, skipping leading
// whitespace. "12abc" is 12, "abc" is 0. Signs are not accepted.
func parseField(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")

	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 1<<31 {
			return 0
		}
	}
	return n
}
