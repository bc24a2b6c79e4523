package recommend

import (
	"sort"

	"repomatch/internal/model"
)

// RankedRepo is a repository with its activity score.
type RankedRepo struct {
	model.Repo
	Score float64 `json:"score"`
}

// RankedUser is a developer with its relevance score.
type RankedUser struct {
	model.CandidateUser
	Score float64 `json:"score"`
}

// RankRepos orders repositories by descending activity score. Ties keep input order.
func RankRepos(repos []model.Repo, w model.RepoWeights, quota int) []RankedRepo {
	out := make([]RankedRepo, 0, len(repos))
	for _, r := range repos {
		out = append(out, RankedRepo{Repo: r, Score: model.ActivityScore(r, w)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > quota {
		out = out[:quota]
	}
	return out
}

// RankUsers orders developers by descending relevance score. Ties keep input order.
func RankUsers(users []model.CandidateUser, keywords []string, w model.DeveloperWeights, quota int) []RankedUser {
	out := make([]RankedUser, 0, len(users))
	for _, u := range users {
		out = append(out, RankedUser{CandidateUser: u, Score: model.DeveloperScore(u, keywords, w)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > quota {
		out = out[:quota]
	}
	return out
}
