package dedupe

import (
	"strings"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// DedupeDecisionMakers removes duplicate decision makers case-insensitively
// by name. The first occurrence wins and order is preserved. Entries with
// empty names are kept as-is; there is nothing to key on.
func DedupeDecisionMakers(dms []model.DecisionMaker) []model.DecisionMaker {
	seen := make(map[string]bool, len(dms))
	out := make([]model.DecisionMaker, 0, len(dms))
	for _, dm := range dms {
		key := Normalize(dm.Name)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, dm)
	}
	return out
}

// HasConnectionFor reports whether an alumni connection for the named contact
// already exists, by checking whether any existing connection's note text
// contains the contact's name (case-insensitive).
//
// Known limitation, reproduced as-is: this is fragile to name formatting
// differences and to names that are substrings of each other, so it can both
// false-negative and false-positive.
func HasConnectionFor(existing []model.AlumniConnection, contactName string) bool {
	name := Normalize(contactName)
	if name == "" {
		return false
	}
	for _, conn := range existing {
		if strings.Contains(strings.ToLower(conn.Notes), name) {
			return true
		}
	}
	return false
}
