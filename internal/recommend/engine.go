package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"repomatch/internal/logging"
	"repomatch/internal/metrics"
	"repomatch/internal/model"
)

// Output names used in logs and metrics.
const (
	OutputNew        = "new"
	OutputClosest    = "closest"
	OutputDevelopers = "developers"
	OutputFamiliar   = "familiar"
)

// Engine produces recommendations from a Source.
type Engine struct {
	src  Source
	opts Options
}

// NewEngine returns an Engine; unset options take their defaults.
func NewEngine(src Source, opts Options) *Engine {
	return &Engine{src: src, opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Report is the result of one full recommendation run.
type Report struct {
	RunID        string        `json:"run_id"`
	Login        string        `json:"login"`
	Keywords     []string      `json:"keywords"`
	NewRepos     []RankedRepo  `json:"new_repos"`
	ClosestRepos []RankedRepo  `json:"closest_repos"`
	Developers   []RankedUser  `json:"developers"`
	Familiar     []model.Repo  `json:"familiar"`
	Duration     time.Duration `json:"duration_ns"`
}

// Profile fetches the profile for login.
func (e *Engine) Profile(ctx context.Context, login string) (model.Profile, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return model.Profile{}, ErrEmptyLogin
	}
	p, err := e.src.FetchProfile(ctx, login)
	if err != nil {
		return model.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if p.Login == "" {
		p.Login = login
	}
	return p, nil
}

// Recommend runs every output for login. Only the profile fetch can fail.
func (e *Engine) Recommend(ctx context.Context, login string) (*Report, error) {
	start := time.Now()
	metrics.RecommendRuns.Inc()
	defer metrics.ObserveRecommendDuration(start)

	p, err := e.Profile(ctx, login)
	if err != nil {
		metrics.RecommendErrors.Inc()
		logging.Error("recommend_failed", map[string]any{"login": login, "error": err.Error()})
		return nil, err
	}
	run := e.NewRun(p)
	logging.Info("recommend_start", map[string]any{
		"run_id": run.ID, "login": p.Login, "keywords": run.Keywords,
	})

	rep := &Report{RunID: run.ID, Login: p.Login, Keywords: run.Keywords}
	rep.Familiar = run.Familiar(ctx)
	rep.NewRepos = run.NewRepos(ctx)
	rep.ClosestRepos = run.ClosestRepos(ctx)
	rep.Developers = run.Developers(ctx)
	rep.Duration = time.Since(start)

	logging.Info("recommend_done", map[string]any{
		"run_id":      run.ID,
		"login":       p.Login,
		"new":         len(rep.NewRepos),
		"closest":     len(rep.ClosestRepos),
		"developers":  len(rep.Developers),
		"familiar":    len(rep.Familiar),
		"elapsed_ms":  rep.Duration.Milliseconds(),
		"queries_run": run.queries(),
	})
	return rep, nil
}

// Run holds the per-run state shared by all outputs of one profile.
type Run struct {
	ID       string
	Profile  model.Profile
	Keywords []string

	e      *Engine
	budget *budget

	orgsOnce sync.Once
	orgs     []string

	mutualsOnce sync.Once
	mutuals     []string
}

// NewRun prepares a run over an already fetched profile.
func (e *Engine) NewRun(p model.Profile) *Run {
	return &Run{
		ID:       uuid.NewString(),
		Profile:  p,
		Keywords: ExtractKeywords(p, e.opts.Keywords),
		e:        e,
		budget:   newBudget(e.opts.MaxQueries),
	}
}

func (r *Run) queries() int {
	if r.budget == nil {
		return -1
	}
	used := int64(r.e.opts.MaxQueries) - r.budget.left.Load()
	if used > int64(r.e.opts.MaxQueries) {
		used = int64(r.e.opts.MaxQueries)
	}
	return int(used)
}

// organizations fetches the user's orgs at most once per run.
func (r *Run) organizations(ctx context.Context) []string {
	r.orgsOnce.Do(func() {
		r.orgs = optional(ctx, r.e.opts.CallTimeout, "orgs", func(ctx context.Context) ([]string, error) {
			return r.e.src.ListOrganizations(ctx, r.Profile.Login)
		})
	})
	return r.orgs
}

func (r *Run) mutualConnections(ctx context.Context) []string {
	r.mutualsOnce.Do(func() {
		following := optional(ctx, r.e.opts.CallTimeout, "following", func(ctx context.Context) ([]string, error) {
			return r.e.src.ListFollowing(ctx, r.Profile.Login)
		})
		followers := optional(ctx, r.e.opts.CallTimeout, "followers", func(ctx context.Context) ([]string, error) {
			return r.e.src.ListFollowers(ctx, r.Profile.Login)
		})
		r.mutuals = Mutuals(following, followers, r.e.opts.MutualMode)
	})
	return r.mutuals
}

// Familiar lists known projects owned by other personal accounts.
func (r *Run) Familiar(ctx context.Context) []model.Repo {
	ex := NewExclusions(r.Profile, r.organizations(ctx), nil)
	return MatchFamiliar(r.Profile, ex, r.e.opts.Quota)
}

// NewRepos recommends recently pushed repositories matching the keywords.
func (r *Run) NewRepos(ctx context.Context) []RankedRepo {
	o := r.e.opts
	filter := RepoFilter{
		PushedAfter: o.Now().Add(-o.NewMaxAge),
		MaxStars:    o.PopularityCeiling,
		Sort:        "updated",
		In:          []string{"description", "readme"},
	}
	rule := RepoRule{SkipStarred: o.ExcludeStarredFromNew}
	return r.repos(ctx, OutputNew, o.NewPages, filter, rule)
}

// ClosestRepos recommends the best-matching repositories for the keywords.
func (r *Run) ClosestRepos(ctx context.Context) []RankedRepo {
	o := r.e.opts
	filter := RepoFilter{
		PushedAfter: o.ClosestPushedAfter,
		MaxStars:    o.PopularityCeiling,
		In:          []string{"description", "readme"},
	}
	rule := RepoRule{SkipStarred: true, RequirePersonal: o.ExcludeOrgOwnedFromClosest}
	return r.repos(ctx, OutputClosest, o.ClosestPages, filter, rule)
}

func (r *Run) repos(ctx context.Context, output string, pages PageSizes, filter RepoFilter, rule RepoRule) []RankedRepo {
	o := r.e.opts
	if len(r.Keywords) == 0 {
		return []RankedRepo{}
	}
	ex := NewExclusions(r.Profile, r.organizations(ctx), nil)
	s := &strategy[model.Repo]{
		output: output,
		kind:   "repositories",
		tiers: []tier[model.Repo]{
			{name: "single", queries: singleQueries(r.Keywords), pageSize: pages.Single},
			{name: "pairs", queries: pairQueries(r.Keywords, nil), pageSize: pages.Pair},
		},
		search: func(ctx context.Context, q searchQuery, pageSize int) ([]model.Repo, error) {
			f := filter
			f.PageSize = pageSize
			return r.e.src.SearchRepositories(ctx, q.terms, f)
		},
		accept: func(repo model.Repo) bool {
			if o.PopularityCeiling > 0 && repo.Stars >= o.PopularityCeiling {
				return false
			}
			skip, _ := ex.RepoExcluded(repo, rule)
			return !skip
		},
		quota:       o.Quota,
		parallelism: o.Parallelism,
		callTimeout: o.CallTimeout,
		budget:      r.budget,
	}
	pool := DedupRepos(s.run(ctx), o.Quota)
	return RankRepos(pool, o.RepoWeights, o.Quota)
}

// Developers recommends personal accounts whose profiles match the keywords.
func (r *Run) Developers(ctx context.Context) []RankedUser {
	o := r.e.opts
	if len(r.Keywords) == 0 {
		return []RankedUser{}
	}
	ex := NewExclusions(r.Profile, r.organizations(ctx), r.mutualConnections(ctx))
	seen := map[string]struct{}{}
	s := &strategy[model.CandidateUser]{
		output: OutputDevelopers,
		kind:   "users",
		tiers: []tier[model.CandidateUser]{
			{name: "pairs", queries: pairQueries(r.Keywords, o.UserFields), pageSize: o.UserPageSize},
			{name: "roles", queries: roleQueries(r.Keywords, o.RoleTerms, o.UserFields), pageSize: o.UserPageSize},
			{name: "fields", queries: fieldQueries(r.Keywords, o.UserFields), pageSize: o.UserPageSize},
			{name: "starred_owners", local: func() []model.CandidateUser { return starredOwners(r.Profile.Starred) }},
		},
		search: func(ctx context.Context, q searchQuery, pageSize int) ([]model.CandidateUser, error) {
			return r.e.src.SearchUsers(ctx, q.terms, q.fields, pageSize)
		},
		accept: func(u model.CandidateUser) bool {
			if skip, _ := ex.UserExcluded(u, seen); skip {
				return false
			}
			MarkSeen(seen, u.Login)
			return true
		},
		quota:       o.Quota,
		pageCut:     true,
		parallelism: o.Parallelism,
		callTimeout: o.CallTimeout,
		budget:      r.budget,
	}
	pool := DedupUsers(s.run(ctx), o.Quota)
	return RankUsers(pool, r.Keywords, o.DeveloperWeights, o.Quota)
}
