package recommend

import (
	"errors"
	"time"

	"repomatch/internal/model"
)

// ErrEmptyLogin is returned when a run is requested without a login.
var ErrEmptyLogin = errors.New("recommend: empty login")

// MutualMode selects how mutual connections are derived from the
// following and followers lists.
type MutualMode string

const (
	// MutualIntersection treats only two-way connections as mutual.
	MutualIntersection MutualMode = "intersection"
	// MutualUnion treats any existing connection as mutual.
	MutualUnion MutualMode = "union"
)

// PageSizes holds the page size for single-keyword and keyword-pair tiers.
type PageSizes struct {
	Single int
	Pair   int
}

// Options configures an Engine. Zero fields fall back to DefaultOptions.
type Options struct {
	Quota    int
	Keywords KeywordOptions

	// PopularityCeiling drops repositories at or above this star count. 0 disables it.
	PopularityCeiling  int
	ClosestPushedAfter time.Time
	NewMaxAge          time.Duration
	NewPages           PageSizes
	ClosestPages       PageSizes
	UserPageSize       int

	CallTimeout time.Duration
	MaxQueries  int
	Parallelism int

	RoleTerms  []string
	UserFields []string

	ExcludeStarredFromNew      bool
	ExcludeOrgOwnedFromClosest bool
	MutualMode                 MutualMode

	RepoWeights      model.RepoWeights
	DeveloperWeights model.DeveloperWeights

	// Now is the clock used for freshness windows.
	Now func() time.Time
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Quota:                 5,
		Keywords:              DefaultKeywordOptions(),
		PopularityCeiling:     100000,
		ClosestPushedAfter:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NewMaxAge:             180 * 24 * time.Hour,
		NewPages:              PageSizes{Single: 5, Pair: 3},
		ClosestPages:          PageSizes{Single: 3, Pair: 2},
		UserPageSize:          2,
		CallTimeout:           15 * time.Second,
		Parallelism:           1,
		RoleTerms:             []string{"developer", "engineer", "opensource"},
		UserFields:            []string{"bio", "login", "name"},
		ExcludeStarredFromNew: true,
		MutualMode:            MutualIntersection,
		RepoWeights:           model.DefaultRepoWeights(),
		DeveloperWeights:      model.DefaultDeveloperWeights(),
		Now:                   time.Now,
	}
}

// withDefaults fills unset fields. Boolean policy flags are taken as given.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Quota <= 0 {
		o.Quota = d.Quota
	}
	if o.Keywords.MaxKeywords <= 0 {
		o.Keywords.MaxKeywords = d.Keywords.MaxKeywords
	}
	if o.Keywords.MinLength <= 0 {
		o.Keywords.MinLength = d.Keywords.MinLength
	}
	if o.Keywords.Stopwords == nil {
		o.Keywords.Stopwords = d.Keywords.Stopwords
	}
	if o.PopularityCeiling < 0 {
		o.PopularityCeiling = 0
	}
	if o.ClosestPushedAfter.IsZero() {
		o.ClosestPushedAfter = d.ClosestPushedAfter
	}
	if o.NewMaxAge <= 0 {
		o.NewMaxAge = d.NewMaxAge
	}
	if o.NewPages.Single <= 0 {
		o.NewPages.Single = d.NewPages.Single
	}
	if o.NewPages.Pair <= 0 {
		o.NewPages.Pair = d.NewPages.Pair
	}
	if o.ClosestPages.Single <= 0 {
		o.ClosestPages.Single = d.ClosestPages.Single
	}
	if o.ClosestPages.Pair <= 0 {
		o.ClosestPages.Pair = d.ClosestPages.Pair
	}
	if o.UserPageSize <= 0 {
		o.UserPageSize = d.UserPageSize
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = d.CallTimeout
	}
	if o.MaxQueries < 0 {
		o.MaxQueries = 0
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 1
	}
	if len(o.RoleTerms) == 0 {
		o.RoleTerms = d.RoleTerms
	}
	if len(o.UserFields) == 0 {
		o.UserFields = d.UserFields
	}
	if o.MutualMode == "" {
		o.MutualMode = d.MutualMode
	}
	if o.RepoWeights == (model.RepoWeights{}) {
		o.RepoWeights = d.RepoWeights
	}
	if o.DeveloperWeights == (model.DeveloperWeights{}) {
		o.DeveloperWeights = d.DeveloperWeights
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
