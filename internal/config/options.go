package config

import (
	"time"

	"repomatch/internal/recommend"
)

func defaultStopwords() []string {
	return append([]string(nil), recommend.DefaultStopwords...)
}

// Options converts the recommend section into engine options.
func (c Config) Options() recommend.Options {
	r := c.Recommend
	o := recommend.DefaultOptions()
	o.Quota = r.Quota
	o.Keywords = recommend.KeywordOptions{
		MaxKeywords: r.MaxKeywords,
		MinLength:   r.MinKeywordLength,
		Stopwords:   r.Stopwords,
	}
	o.PopularityCeiling = r.PopularityCeiling
	if t, err := time.Parse("2006-01-02", r.ClosestPushedAfter); err == nil {
		o.ClosestPushedAfter = t
	}
	o.NewMaxAge = r.NewMaxAge
	o.CallTimeout = r.CallTimeout
	o.Parallelism = r.Parallelism
	o.MaxQueries = r.MaxQueries
	o.RoleTerms = r.RoleTerms
	o.UserFields = r.UserFields
	o.ExcludeStarredFromNew = r.ExcludeStarredFromNew
	o.ExcludeOrgOwnedFromClosest = r.ExcludeOrgOwnedFromClosest
	o.MutualMode = recommend.MutualMode(r.MutualMode)
	o.RepoWeights = r.Weights.Repo
	o.DeveloperWeights = r.Weights.Developer
	return o
}
