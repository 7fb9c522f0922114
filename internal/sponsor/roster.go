// Package sponsor tags companies with their historical sponsorship years.
package sponsor

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry is one historical sponsor in a given year's roster.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Tier string `yaml:"tier,omitempty" json:"tier,omitempty"`
}

// Roster maps a conference year ("2024") to that year's sponsors. It is
// versioned configuration loaded from a file, not an embedded literal, so the
// team can amend past rosters without a redeploy.
type Roster map[string][]Entry

// Years returns the roster's years sorted descending (most recent first).
// Year keys are strings; descending lexicographic order matches descending
// numeric order for four-digit years.
func (r Roster) Years() []string {
	years := make([]string, 0, len(r))
	for y := range r {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// rosterFile is the on-disk YAML shape.
type rosterFile struct {
	Years Roster `yaml:"years"`
}

// LoadRoster reads a roster YAML file of the form:
//
//	years:
//	  "2024":
//	    - name: Intel
//	      tier: gold
func LoadRoster(path string) (Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sponsor: read roster %s", path)
	}

	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "sponsor: parse roster %s", path)
	}
	if len(f.Years) == 0 {
		return nil, eris.Errorf("sponsor: roster %s has no years", path)
	}

	return f.Years, nil
}
