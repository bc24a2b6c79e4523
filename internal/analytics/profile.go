package analytics

import (
	"sort"
	"strings"
	"time"

	"repomatch/internal/model"
)

// LanguageCount is how many owned repositories use a language.
type LanguageCount struct {
	Language string `json:"language"`
	Repos    int    `json:"repos"`
}

// Summary is a compact description of a profile's public activity.
type Summary struct {
	Login          string          `json:"login"`
	OwnedRepos     int             `json:"owned_repos"`
	Forks          int             `json:"forks"`
	StarredRepos   int             `json:"starred_repos"`
	Collaborations int             `json:"collaborations"`
	HasReadme      bool            `json:"has_readme"`
	Languages      []LanguageCount `json:"languages"`
	LastPushed     time.Time       `json:"last_pushed"`
	LastPushedRepo string          `json:"last_pushed_repo,omitempty"`
	TopStarred     []string        `json:"top_starred"`
	RecentlyActive []string        `json:"recently_active"`
}

// Summarize builds a Summary. Repositories pushed within window of now count
// as recently active.
func Summarize(p model.Profile, now time.Time, window time.Duration) Summary {
	s := Summary{
		Login:          p.Login,
		OwnedRepos:     len(p.Repos),
		StarredRepos:   len(p.Starred),
		Collaborations: len(p.Collaborated),
		HasReadme:      strings.TrimSpace(p.Readme) != "",
		Languages:      LanguageCounts(p.Repos),
	}
	for _, r := range p.Repos {
		if r.Fork {
			s.Forks++
		}
		if r.PushedAt.After(s.LastPushed) {
			s.LastPushed = r.PushedAt
			s.LastPushedRepo = r.FullName
		}
		if !r.PushedAt.IsZero() && now.Sub(r.PushedAt) <= window {
			s.RecentlyActive = append(s.RecentlyActive, r.FullName)
		}
	}

	owned := append([]model.Repo(nil), p.Repos...)
	sort.SliceStable(owned, func(i, j int) bool { return owned[i].Stars > owned[j].Stars })
	for i := 0; i < len(owned) && i < 3; i++ {
		if owned[i].Stars == 0 {
			break
		}
		s.TopStarred = append(s.TopStarred, owned[i].FullName)
	}
	return s
}

// LanguageCounts tallies languages of repos, most used first, ties by name.
func LanguageCounts(repos []model.Repo) []LanguageCount {
	counts := map[string]int{}
	for _, r := range repos {
		if r.Language != "" {
			counts[r.Language]++
		}
	}
	out := make([]LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, LanguageCount{Language: lang, Repos: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Repos != out[j].Repos {
			return out[i].Repos > out[j].Repos
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// MonthlyPushes buckets repositories by the month of their last push.
func MonthlyPushes(repos []model.Repo) map[time.Time]int {
	buckets := make(map[time.Time]int)
	for _, r := range repos {
		if r.PushedAt.IsZero() {
			continue
		}
		t := r.PushedAt.UTC()
		buckets[time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}
	return buckets
}

// SortedMonthKeys returns sorted month keys.
func SortedMonthKeys(m map[time.Time]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
