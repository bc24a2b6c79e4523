package model

import (
	"strings"

	"repomatch/internal/util"
)

// RepoWeights tunes the community-activity score.
type RepoWeights struct {
	Stars      float64 `yaml:"stars" koanf:"stars"`
	Forks      float64 `yaml:"forks" koanf:"forks"`
	OpenIssues float64 `yaml:"openIssues" koanf:"openIssues"`
	// PushDivisor scales push time (unix seconds) into a small tie-break term.
	PushDivisor float64 `yaml:"pushDivisor" koanf:"pushDivisor"`
}

// DeveloperWeights tunes the developer relevance score.
type DeveloperWeights struct {
	Avatar          float64 `yaml:"avatar" koanf:"avatar"`
	Bio             float64 `yaml:"bio" koanf:"bio"`
	BioMinLength    int     `yaml:"bioMinLength" koanf:"bioMinLength"`
	FollowerCap     int     `yaml:"followerCap" koanf:"followerCap"`
	FollowerDivisor float64 `yaml:"followerDivisor" koanf:"followerDivisor"`
	KeywordHit      float64 `yaml:"keywordHit" koanf:"keywordHit"`
	BotPenalty      float64 `yaml:"botPenalty" koanf:"botPenalty"`
	EmptyBioPenalty float64 `yaml:"emptyBioPenalty" koanf:"emptyBioPenalty"`
	EmptyBioLength  int     `yaml:"emptyBioLength" koanf:"emptyBioLength"`
	LowFollowers    int     `yaml:"lowFollowers" koanf:"lowFollowers"`
	LowFollowerCost float64 `yaml:"lowFollowerCost" koanf:"lowFollowerCost"`
}

// DefaultRepoWeights returns the stock community-activity weighting.
func DefaultRepoWeights() RepoWeights {
	return RepoWeights{Stars: 1, Forks: 1, OpenIssues: 1, PushDivisor: 1e12}
}

// DefaultDeveloperWeights returns the stock developer weighting.
func DefaultDeveloperWeights() DeveloperWeights {
	return DeveloperWeights{
		Avatar:          2,
		Bio:             2,
		BioMinLength:    10,
		FollowerCap:     100,
		FollowerDivisor: 20,
		KeywordHit:      2,
		BotPenalty:      5,
		EmptyBioPenalty: 1,
		EmptyBioLength:  5,
		LowFollowers:    2,
		LowFollowerCost: 1,
	}
}

// ActivityScore estimates how alive a repository's community is.
// Push time only nudges ties; it never outweighs a single star.
func ActivityScore(r Repo, w RepoWeights) float64 {
	score := w.Stars*float64(r.Stars) + w.Forks*float64(r.Forks) + w.OpenIssues*float64(r.OpenIssues)
	if !r.PushedAt.IsZero() && w.PushDivisor > 0 {
		score += float64(r.PushedAt.Unix()) / w.PushDivisor
	}
	return score
}

// DeveloperScore rates a candidate developer; higher is better.
// Keyword hits are case-insensitive substring occurrences across bio, name and login.
func DeveloperScore(u CandidateUser, keywords []string, w DeveloperWeights) float64 {
	score := 0.0
	if u.HasAvatar() {
		score += w.Avatar
	}
	bioLen := len([]rune(u.Bio))
	if bioLen > w.BioMinLength {
		score += w.Bio
	}
	followers := u.Followers
	if w.FollowerCap > 0 && followers > w.FollowerCap {
		followers = w.FollowerCap
	}
	if w.FollowerDivisor > 0 {
		score += float64(followers) / w.FollowerDivisor
	}
	hits := util.CountOccurrencesFold(u.Bio, keywords) +
		util.CountOccurrencesFold(u.Name, keywords) +
		util.CountOccurrencesFold(u.Login, keywords)
	score += w.KeywordHit * float64(hits)
	if strings.Contains(strings.ToLower(u.Login), "bot") {
		score -= w.BotPenalty
	}
	if bioLen < w.EmptyBioLength {
		score -= w.EmptyBioPenalty
	}
	if u.Followers < w.LowFollowers {
		score -= w.LowFollowerCost
	}
	return score
}
