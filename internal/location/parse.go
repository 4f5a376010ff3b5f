package location

import (
	"regexp"
	"strings"
)

// leadingBullet matches list markers the model sometimes prefixes to lines:
// "-", "*", "•" or a number followed by "." or ")".
var leadingBullet = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

// ParseCountryMap reads "location -> country" lines from an oracle response.
// Lines without exactly one arrow, or with an empty side after trimming, are skipped.
func ParseCountryMap(response string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = leadingBullet.ReplaceAllString(line, "")

		parts := strings.Split(line, "->")
		if len(parts) != 2 {
			continue
		}
		loc := cleanSide(parts[0])
		country := cleanSide(parts[1])
		if loc == "" || country == "" {
			continue
		}
		out[loc] = country
	}
	return out
}

func cleanSide(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
