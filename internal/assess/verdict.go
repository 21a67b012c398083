package assess

import (
	"fmt"
	"regexp"
	"strings"
)

var statusPattern = regexp.MustCompile(`FULFILLMENT_STATUS:\s*(COMPLETED|PENDING)`)

// ParseVerdict extracts the completeness decision from a raw model response.
// A response without a recognizable status marker is an error so the caller
// can retry instead of silently guessing.
func ParseVerdict(raw string) (Verdict, error) {
	m := statusPattern.FindStringSubmatch(raw)
	if m == nil {
		return Verdict{}, fmt.Errorf("malformed assessment response: no status marker")
	}

	if m[1] == "COMPLETED" {
		return Verdict{Complete: true}, nil
	}

	return Verdict{Complete: false, MissingItems: parseMissingItems(raw)}, nil
}

// parseMissingItems collects the item lines after the MISSING_ITEMS marker,
// stopping at the next blank line or section marker.
func parseMissingItems(raw string) []string {
	idx := strings.Index(raw, "MISSING_ITEMS:")
	if idx < 0 {
		return []string{"Required fulfillment items missing"}
	}

	var items []string
	rest := raw[idx+len("MISSING_ITEMS:"):]
	for _, line := range strings.Split(rest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(items) > 0 {
				break
			}
			continue
		}
		if strings.Contains(line, "FULFILLMENT_STATUS:") {
			break
		}
		if strings.EqualFold(line, "none") {
			continue
		}
		items = append(items, strings.TrimSpace(strings.TrimPrefix(line, "-")))
	}

	if len(items) == 0 {
		items = []string{"Required fulfillment items missing"}
	}
	return items
}
