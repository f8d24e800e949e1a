package action

import (
	"regexp"
	"strings"
)

var (
	tagRE      = regexp.MustCompile(`^\[\s*/?fault\s*\]$`)
	keyValueRE = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
)

// ParseAnnotation extracts key=value pairs found inside the first
// [fault] ... [/fault] block of doc. Blank lines are ignored; a
// duplicate key overwrites the earlier value; text outside the first
// such block is ignored. This is a hook for future per-action policy —
// the registry reads but does not currently enforce any key.
func ParseAnnotation(doc string) map[string]string {
	result := make(map[string]string)

	reading := false
	for _, rawLine := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if tagRE.MatchString(line) {
			if reading {
				break
			}
			reading = true
			continue
		}

		if reading {
			if m := keyValueRE.FindStringSubmatch(line); m != nil {
				result[m[1]] = m[2]
			}
		}
	}

	return result
}
