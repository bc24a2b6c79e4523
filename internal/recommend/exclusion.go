package recommend

import (
	"strings"

	"repomatch/internal/model"
)

type set map[string]struct{}

func (s set) has(k string) bool {
	_, ok := s[strings.ToLower(k)]
	return ok
}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, it := range items {
		if it != "" {
			s[strings.ToLower(it)] = struct{}{}
		}
	}
	return s
}

func repoNames(repos []model.Repo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.FullName)
	}
	return out
}

// Mutuals derives mutual connection logins from following and followers.
func Mutuals(following, followers []string, mode MutualMode) []string {
	if mode == MutualUnion {
		out := make([]string, 0, len(following)+len(followers))
		out = append(out, following...)
		return append(out, followers...)
	}
	back := newSet(followers)
	var out []string
	for _, l := range following {
		if back.has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Exclusions answers whether a candidate is already known to the user.
// It is immutable once built; comparisons are case-insensitive.
type Exclusions struct {
	login        string
	owned        set
	starred      set
	collaborated set
	orgs         set
	mutuals      set
}

// NewExclusions builds the exclusion set for a profile.
func NewExclusions(p model.Profile, orgs, mutuals []string) *Exclusions {
	return &Exclusions{
		login:        strings.ToLower(p.Login),
		owned:        newSet(repoNames(p.Repos)),
		starred:      newSet(repoNames(p.Starred)),
		collaborated: newSet(p.Collaborated),
		orgs:         newSet(orgs),
		mutuals:      newSet(mutuals),
	}
}

// IsSelf reports whether login is the profile owner.
func (e *Exclusions) IsSelf(login string) bool {
	return strings.EqualFold(login, e.login)
}

// IsOrg reports whether login is one of the user's organizations.
func (e *Exclusions) IsOrg(login string) bool { return e.orgs.has(login) }

// OwnerExcluded checks a repository owner on its own.
func (e *Exclusions) OwnerExcluded(o model.Owner, requirePersonal bool) (bool, string) {
	switch {
	case e.IsSelf(o.Login):
		return true, "self"
	case e.IsOrg(o.Login):
		return true, "org"
	case requirePersonal && !o.Kind.IsPersonal():
		return true, "not_personal"
	}
	return false, ""
}

// RepoRule selects the optional repository checks for one output.
type RepoRule struct {
	SkipStarred     bool
	RequirePersonal bool
}

// RepoExcluded reports whether r must not be recommended, and why.
func (e *Exclusions) RepoExcluded(r model.Repo, rule RepoRule) (bool, string) {
	switch {
	case e.owned.has(r.FullName):
		return true, "owned"
	case rule.SkipStarred && e.starred.has(r.FullName):
		return true, "starred"
	case e.collaborated.has(r.FullName):
		return true, "collaborated"
	}
	return e.OwnerExcluded(r.Owner, rule.RequirePersonal)
}

// UserExcluded reports whether u must not be recommended, and why.
// The seen set is per output and owned by the caller.
func (e *Exclusions) UserExcluded(u model.CandidateUser, seen map[string]struct{}) (bool, string) {
	key := strings.ToLower(u.Login)
	if _, dup := seen[key]; dup {
		return true, "seen"
	}
	switch {
	case key == "":
		return true, "empty"
	case e.IsSelf(u.Login):
		return true, "self"
	case e.mutuals.has(u.Login):
		return true, "mutual"
	case e.IsOrg(u.Login):
		return true, "org"
	case !u.Kind.IsPersonal():
		return true, "not_personal"
	}
	return false, ""
}

// MarkSeen records an accepted user in seen.
func MarkSeen(seen map[string]struct{}, login string) {
	seen[strings.ToLower(login)] = struct{}{}
}
