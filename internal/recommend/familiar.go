package recommend

import (
	"strings"

	"repomatch/internal/model"
)

// MatchFamiliar lists projects the user already knows: repositories they
// starred, limited to other people's personal accounts. Owned forks are not
// considered since a fork listed under the user belongs to the user.
// Duplicates keep their first position.
func MatchFamiliar(p model.Profile, ex *Exclusions, quota int) []model.Repo {
	seen := map[string]struct{}{}
	out := make([]model.Repo, 0, quota)
	for _, r := range p.Starred {
		if len(out) >= quota {
			break
		}
		if skip, _ := ex.OwnerExcluded(r.Owner, true); skip {
			continue
		}
		key := strings.ToLower(r.FullName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
