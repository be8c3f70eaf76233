package meals

import (
	"fmt"
	"strings"
)

// FilterResult partitions an import batch.
type FilterResult struct {
	Accepted       []Draft
	DuplicateCount int
	Errors         []string
}

// FilterBatch validates candidates and drops any whose mobile is already
// registered or was accepted earlier in the same batch. The first occurrence
// of a mobile wins. existingMobiles holds lowercase keys and is not modified.
func FilterBatch(candidates []RawInput, existingMobiles map[string]struct{}) FilterResult {
	res := FilterResult{Accepted: []Draft{}, Errors: []string{}}
	seen := make(map[string]struct{}, len(candidates))

	for i, c := range candidates {
		name := strings.TrimSpace(c.Name)
		team := strings.TrimSpace(c.TeamName)
		mobile := strings.TrimSpace(c.Mobile)

		if missing := missingFields(name, team, mobile); len(missing) > 0 {
			label := name
			if label == "" {
				label = fmt.Sprintf("row %d", i+1)
			}
			res.Errors = append(res.Errors, fmt.Sprintf("missing required fields (%s) for entry: %s", strings.Join(missing, ", "), label))
			continue
		}

		key := MobileKey(mobile)
		if _, ok := existingMobiles[key]; ok {
			res.DuplicateCount++
			continue
		}
		if _, ok := seen[key]; ok {
			res.DuplicateCount++
			continue
		}
		seen[key] = struct{}{}

		d := Draft{Name: name, TeamName: team, Mobile: mobile}
		if email := strings.TrimSpace(c.Email); email != "" {
			d.Email = &email
		}
		res.Accepted = append(res.Accepted, d)
	}
	return res
}

func missingFields(name, team, mobile string) []string {
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if team == "" {
		missing = append(missing, "team")
	}
	if mobile == "" {
		missing = append(missing, "mobile")
	}
	return missing
}
