package dedupe

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// MergeResult describes how a duplicate cluster collapses into one record.
type MergeResult struct {
	// Keep is the surviving record: the most recently updated cluster member.
	Keep model.Company
	// MergedFields is the combined field map to apply onto Keep. Empty for a
	// single-member cluster (no-op).
	MergedFields map[string]any
	// Remove lists the cluster members to delete after Keep is updated.
	Remove []model.Company
}

// MergeCluster resolves a duplicate cluster into a single record.
//
// The cluster is sorted descending by updated_at (stable, so ties preserve
// input order). The most recently touched record survives. Field resolution
// scans members in that order:
//   - array fields are concatenated without deduplication — per-field dedup
//     (decision makers, sponsor years) is the responsibility of the operations
//     that own those fields, not the merge
//   - scalar fields are first-non-empty-wins; once set, later members cannot
//     override, so the survivor's own values are always preferred
//
// Record metadata (id, created_at, updated_at, created_by) is never merged.
func MergeCluster(cluster []model.Company) (MergeResult, error) {
	if len(cluster) == 0 {
		return MergeResult{}, eris.New("dedupe: empty cluster")
	}

	sorted := make([]model.Company, len(cluster))
	copy(sorted, cluster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	res := MergeResult{Keep: sorted[0]}
	if len(sorted) == 1 {
		return res, nil
	}
	res.Remove = sorted[1:]

	merged := make(map[string]any)
	for _, member := range sorted {
		fields, err := member.FieldMap()
		if err != nil {
			return MergeResult{}, eris.Wrap(err, "dedupe: field map")
		}
		for key, value := range fields {
			if model.ReservedFieldKey(key) {
				continue
			}
			if arr, ok := value.([]any); ok {
				existing, _ := merged[key].([]any)
				merged[key] = append(existing, arr...)
				continue
			}
			if _, ok := merged[key]; !ok {
				merged[key] = value
			}
		}
	}
	res.MergedFields = merged

	return res, nil
}
