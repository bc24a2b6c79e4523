package recommend

import (
	"strings"

	"repomatch/internal/model"
)

// DedupRepos keeps the first occurrence of each full name and at most one
// repository per owner, preserving order, and stops at quota.
func DedupRepos(pool []model.Repo, quota int) []model.Repo {
	names := map[string]struct{}{}
	owners := map[string]struct{}{}
	out := make([]model.Repo, 0, quota)
	for _, r := range pool {
		if len(out) >= quota {
			break
		}
		name := strings.ToLower(r.FullName)
		owner := strings.ToLower(r.Owner.Login)
		if _, dup := names[name]; dup {
			continue
		}
		if _, dup := owners[owner]; dup {
			continue
		}
		names[name] = struct{}{}
		owners[owner] = struct{}{}
		out = append(out, r)
	}
	return out
}

// DedupUsers keeps the first occurrence of each login and stops at quota.
func DedupUsers(pool []model.CandidateUser, quota int) []model.CandidateUser {
	seen := map[string]struct{}{}
	out := make([]model.CandidateUser, 0, quota)
	for _, u := range pool {
		if len(out) >= quota {
			break
		}
		key := strings.ToLower(u.Login)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}
