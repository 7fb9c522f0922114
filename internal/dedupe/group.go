package dedupe

import "github.com/confops/sponsor-pipeline/internal/model"

// Group is a set of companies sharing the same normalized name.
type Group struct {
	Key       string
	Companies []model.Company
}

// GroupDuplicates buckets companies by normalized name using exact equality
// (after normalization), not the fuzzy containment match from NamesMatch —
// the two notions of "same company" coexist deliberately and must not be
// unified. The result partitions the input: group order follows first
// appearance in the input, and members keep insertion order. Companies with
// empty or whitespace-only names land in a single "" group.
func GroupDuplicates(companies []model.Company) []Group {
	index := make(map[string]int, len(companies))
	groups := make([]Group, 0, len(companies))

	for _, c := range companies {
		key := Normalize(c.Name)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Companies = append(groups[i].Companies, c)
	}

	return groups
}

// DuplicateGroups filters to the merge candidates: groups of size > 1 with a
// non-empty key. Empty-named companies are never auto-merged; two records
// that both lack a name are not evidence of being the same company.
func DuplicateGroups(groups []Group) []Group {
	var out []Group
	for _, g := range groups {
		if g.Key == "" || len(g.Companies) < 2 {
			continue
		}
		out = append(out, g)
	}
	return out
}
