package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repomatch/internal/metrics"
	"repomatch/internal/model"
)

func goProfile() model.Profile {
	return model.Profile{
		Login: "a",
		Repos: []model.Repo{{FullName: "a/x", Name: "x", Owner: model.Owner{Login: "a", Kind: model.KindUser}, Language: "Go", Description: "Go tool"}},
	}
}

func TestRecommendGoScenario(t *testing.T) {
	src := &fakeSource{
		profile: goProfile(),
		repoPages: map[string][]model.Repo{
			"go": {personalRepo("b", "y", 10), personalRepo("a", "z", 50)},
		},
	}
	rep, err := NewEngine(src, testOptions()).Recommend(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, []string{"go"}, rep.Keywords)
	assert.NotEmpty(t, rep.RunID)

	var names []string
	for _, r := range rep.ClosestRepos {
		names = append(names, r.FullName)
	}
	assert.Contains(t, names, "b/y")
	assert.NotContains(t, names, "a/z")

	queries := src.repoQueries()
	require.NotEmpty(t, queries)
	for _, q := range queries {
		assert.Contains(t, q, "go")
	}

	var newQueries []string
	for _, c := range src.reposCalled() {
		if c.filter.Sort == "updated" {
			newQueries = append(newQueries, c.query)
		}
	}
	assert.Contains(t, newQueries, "go")
}

func TestNewReposStopsAtQuota(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang golang golang rust rust kafka"}
	src := &fakeSource{
		profile: p,
		repoPages: map[string][]model.Repo{
			"golang": {
				personalRepo("o1", "r", 1), personalRepo("o2", "r", 2), personalRepo("o3", "r", 3),
				personalRepo("o4", "r", 4), personalRepo("o5", "r", 5),
			},
		},
	}
	e := NewEngine(src, testOptions())
	run := e.NewRun(p)
	got := run.NewRepos(context.Background())

	assert.Len(t, got, 5)
	assert.Equal(t, []string{"golang"}, src.repoQueries(), "no further query once quota is met")

	c := src.repoCalls[0]
	assert.Equal(t, 5, c.filter.PageSize)
	assert.Equal(t, "updated", c.filter.Sort)
	assert.Equal(t, fixedNow.Add(-180*24*time.Hour), c.filter.PushedAfter)
	assert.Equal(t, 100000, c.filter.MaxStars)
	assert.Equal(t, "o5/r", got[0].FullName, "ranked by activity")
}

func TestClosestReposFallsBackToPairs(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang golang rust"}
	src := &fakeSource{
		profile: p,
		repoPages: map[string][]model.Repo{
			"golang":      {personalRepo("o1", "r", 1)},
			"golang rust": {personalRepo("o2", "r", 1), personalRepo("o3", "r", 1)},
		},
	}
	got := NewEngine(src, testOptions()).NewRun(p).ClosestRepos(context.Background())

	assert.Len(t, got, 3)
	assert.Equal(t, []string{"golang", "rust", "golang rust"}, src.repoQueries())
	assert.Equal(t, 3, src.repoCalls[0].filter.PageSize)
	assert.Equal(t, 2, src.repoCalls[2].filter.PageSize)
	assert.Empty(t, src.repoCalls[0].filter.Sort)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), src.repoCalls[0].filter.PushedAfter)
}

func TestPopularityCeiling(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang"}
	src := &fakeSource{
		profile: p,
		repoPages: map[string][]model.Repo{
			"golang": {personalRepo("big", "r", 150000), personalRepo("small", "r", 10)},
		},
	}
	run := NewEngine(src, testOptions()).NewRun(p)
	for _, got := range [][]RankedRepo{run.NewRepos(context.Background()), run.ClosestRepos(context.Background())} {
		require.Len(t, got, 1)
		assert.Equal(t, "small/r", got[0].FullName)
	}
}

func TestExclusionsAppliedToRepos(t *testing.T) {
	p := model.Profile{
		Login:        "Me",
		Readme:       "golang",
		Repos:        []model.Repo{personalRepo("me", "mine", 1)},
		Starred:      []model.Repo{personalRepo("s", "starred", 1)},
		Collaborated: []string{"c/collab"},
	}
	src := &fakeSource{
		profile: p,
		orgs:    []string{"acme"},
		repoPages: map[string][]model.Repo{
			"golang": {
				personalRepo("me", "mine", 1),
				personalRepo("ME", "other", 1),
				personalRepo("s", "starred", 1),
				personalRepo("c", "collab", 1),
				orgRepo("ACME", "internal", 1),
				personalRepo("ok", "fine", 1),
			},
		},
	}
	opts := testOptions()
	opts.NewPages.Single = 10
	run := NewEngine(src, opts).NewRun(p)
	got := run.NewRepos(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "ok/fine", got[0].FullName)
	assert.Equal(t, 1, src.orgCalls)

	run.ClosestRepos(context.Background())
	assert.Equal(t, 1, src.orgCalls, "orgs fetched once per run")
}

func TestClosestOrgOwnedPolicy(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang"}
	pages := map[string][]model.Repo{"golang": {orgRepo("corp", "lib", 1), personalRepo("p", "lib", 1)}}

	src := &fakeSource{profile: p, repoPages: pages}
	got := NewEngine(src, testOptions()).NewRun(p).ClosestRepos(context.Background())
	assert.Len(t, got, 2)

	opts := testOptions()
	opts.ExcludeOrgOwnedFromClosest = true
	src = &fakeSource{profile: p, repoPages: pages}
	got = NewEngine(src, opts).NewRun(p).ClosestRepos(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "p/lib", got[0].FullName)
}

func TestNewReposStarredPolicy(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang", Starred: []model.Repo{personalRepo("s", "r", 1)}}
	pages := map[string][]model.Repo{"golang": {personalRepo("s", "r", 1)}}

	src := &fakeSource{profile: p, repoPages: pages}
	assert.Empty(t, NewEngine(src, testOptions()).NewRun(p).NewRepos(context.Background()))

	opts := testOptions()
	opts.ExcludeStarredFromNew = false
	src = &fakeSource{profile: p, repoPages: pages}
	assert.Len(t, NewEngine(src, opts).NewRun(p).NewRepos(context.Background()), 1)
}

func TestReposOnePerOwner(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang rust"}
	src := &fakeSource{
		profile: p,
		repoPages: map[string][]model.Repo{
			"golang": {personalRepo("o", "one", 1), personalRepo("o", "two", 9), personalRepo("p", "one", 1)},
			"rust":   {personalRepo("p", "one", 1)},
		},
	}
	got := NewEngine(src, testOptions()).NewRun(p).NewRepos(context.Background())
	require.Len(t, got, 2)
	owners := map[string]bool{}
	for _, r := range got {
		assert.False(t, owners[r.Owner.Login])
		owners[r.Owner.Login] = true
	}
}

func TestDevelopersTiersAndExclusions(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang golang rust"}
	bot := user("dep-bot")
	bot.Kind = model.AccountKind("Bot")
	src := &fakeSource{
		profile:   p,
		orgs:      []string{"acme"},
		following: []string{"friend", "idol"},
		followers: []string{"friend"},
		userPages: map[string][]model.CandidateUser{
			"golang rust":      {user("me"), user("friend")},
			"golang developer": {user("idol"), user("acme")},
			"golang engineer":  {bot, user("idol")},
			"rust developer":   {user("carol"), user("dave")},
			"rust engineer":    {user("erin"), user("frank")},
		},
	}
	got := NewEngine(src, testOptions()).NewRun(p).Developers(context.Background())

	var logins []string
	for _, u := range got {
		logins = append(logins, u.Login)
	}
	assert.ElementsMatch(t, []string{"idol", "carol", "dave", "erin", "frank"}, logins)
	assert.Equal(t, []string{
		"golang rust",
		"golang developer", "golang engineer", "golang opensource",
		"rust developer", "rust engineer",
	}, src.userQueries())
	assert.Equal(t, []string{"bio", "login", "name"}, src.userCalls[0].fields)
}

func TestDevelopersUnionMutuals(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang"}
	src := &fakeSource{
		profile:   p,
		following: []string{"idol"},
		userPages: map[string][]model.CandidateUser{"golang developer": {user("idol")}},
	}
	opts := testOptions()
	opts.MutualMode = MutualUnion
	assert.Empty(t, NewEngine(src, opts).NewRun(p).Developers(context.Background()))
}

func TestDevelopersStopMidPage(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "aaa bbb ccc"}
	src := &fakeSource{
		profile: p,
		userPages: map[string][]model.CandidateUser{
			"aaa bbb": {user("u1"), user("u2")},
			"aaa ccc": {user("u3"), user("u4")},
			"bbb ccc": {user("u5"), user("u6")},
		},
	}
	got := NewEngine(src, testOptions()).NewRun(p).Developers(context.Background())
	assert.Len(t, got, 5)
	assert.Len(t, src.userQueries(), 3)
	for _, u := range got {
		assert.NotEqual(t, "u6", u.Login)
	}
}

func TestDevelopersStarredOwnerFallback(t *testing.T) {
	p := model.Profile{
		Login:   "me",
		Readme:  "golang",
		Starred: []model.Repo{personalRepo("maker", "tool", 1), orgRepo("corp", "sdk", 1), personalRepo("maker", "other", 1)},
	}
	src := &fakeSource{profile: p}
	got := NewEngine(src, testOptions()).NewRun(p).Developers(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "maker", got[0].Login)
}

func TestFamiliarProjects(t *testing.T) {
	p := model.Profile{
		Login: "me",
		Repos: []model.Repo{
			{FullName: "me/fork", Owner: model.Owner{Login: "me", Kind: model.KindUser}, Fork: true},
			{FullName: "me/lib", Owner: model.Owner{Login: "me", Kind: model.KindUser}, Fork: true},
		},
		Starred: []model.Repo{
			personalRepo("me", "own", 1),
			personalRepo("alice", "lib", 1),
			orgRepo("corp", "sdk", 1),
			personalRepo("myorg", "x", 1),
			personalRepo("alice", "lib", 1),
			personalRepo("bob", "cli", 1),
		},
	}
	src := &fakeSource{profile: p, orgs: []string{"MyOrg"}}
	got := NewEngine(src, testOptions()).NewRun(p).Familiar(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "alice/lib", got[0].FullName)
	assert.Equal(t, "bob/cli", got[1].FullName)
}

func TestFamiliarIgnoresOwnedForks(t *testing.T) {
	p := model.Profile{
		Login: "me",
		Repos: []model.Repo{
			{FullName: "me/kernel", Owner: model.Owner{Login: "me", Kind: model.KindUser}, Fork: true},
			{FullName: "me/tool", Owner: model.Owner{Login: "me", Kind: model.KindUser}},
		},
		Starred: []model.Repo{personalRepo("bob", "cli", 1)},
	}
	got := MatchFamiliar(p, NewExclusions(p, nil, nil), 5)
	require.Len(t, got, 1)
	assert.Equal(t, "bob/cli", got[0].FullName)
}

func TestEmptyKeywordsIssueNoSearches(t *testing.T) {
	p := model.Profile{Login: "me"}
	src := &fakeSource{profile: p}
	rep, err := NewEngine(src, testOptions()).Recommend(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, rep.Keywords)
	assert.Empty(t, rep.NewRepos)
	assert.Empty(t, rep.ClosestRepos)
	assert.Empty(t, rep.Developers)
	assert.Empty(t, src.repoCalls)
	assert.Empty(t, src.userCalls)
}

func TestAllSearchesFailYieldEmptyOutputs(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang rust kafka"}
	src := &fakeSource{profile: p, failAll: true}
	rep, err := NewEngine(src, testOptions()).Recommend(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, rep.NewRepos)
	assert.Empty(t, rep.ClosestRepos)
	assert.Empty(t, rep.Developers)
	assert.Empty(t, rep.Familiar)
	assert.NotEmpty(t, src.repoCalls, "every tier was still attempted")
}

func TestSearchTimeoutsYieldEmptyOutputs(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang rust kafka"}
	src := &hangSource{profile: p}
	opts := testOptions()
	opts.CallTimeout = 5 * time.Millisecond

	repoTimeouts := testutil.ToFloat64(metrics.SearchCalls.WithLabelValues("repositories", "timeout"))
	userTimeouts := testutil.ToFloat64(metrics.SearchCalls.WithLabelValues("users", "timeout"))
	orgFailures := testutil.ToFloat64(metrics.EnrichmentFailures.WithLabelValues("orgs"))

	rep, err := NewEngine(src, opts).Recommend(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, rep.NewRepos)
	assert.Empty(t, rep.ClosestRepos)
	assert.Empty(t, rep.Developers)
	assert.Empty(t, rep.Familiar)

	assert.Greater(t, testutil.ToFloat64(metrics.SearchCalls.WithLabelValues("repositories", "timeout")), repoTimeouts)
	assert.Greater(t, testutil.ToFloat64(metrics.SearchCalls.WithLabelValues("users", "timeout")), userTimeouts)
	assert.Greater(t, testutil.ToFloat64(metrics.EnrichmentFailures.WithLabelValues("orgs")), orgFailures)
	assert.Positive(t, src.searches.Load())
}

func TestProfileFailureIsFatal(t *testing.T) {
	src := &fakeSource{profileErr: errFake}
	rep, err := NewEngine(src, testOptions()).Recommend(context.Background(), "me")
	require.ErrorIs(t, err, errFake)
	assert.Nil(t, rep)
	assert.True(t, strings.HasPrefix(err.Error(), "fetch profile"))

	_, err = NewEngine(src, testOptions()).Recommend(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyLogin)
}

func TestQueryBudget(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "aaa bbb ccc ddd"}
	src := &fakeSource{profile: p}
	opts := testOptions()
	opts.MaxQueries = 3
	rep, err := NewEngine(src, opts).Recommend(context.Background(), "me")
	require.NoError(t, err)
	assert.Len(t, src.repoCalls, 3)
	assert.Empty(t, src.userCalls)
	assert.Empty(t, rep.NewRepos)
}

func TestParallelMatchesSequential(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "aaa bbb ccc ddd"}
	pages := map[string][]model.Repo{
		"aaa":     {personalRepo("o1", "r", 1)},
		"bbb":     {personalRepo("o2", "r", 2)},
		"ccc":     {personalRepo("o3", "r", 3)},
		"ddd":     {personalRepo("o4", "r", 4)},
		"aaa bbb": {personalRepo("o5", "r", 5), personalRepo("o6", "r", 6)},
	}

	seq := &fakeSource{profile: p, repoPages: pages}
	want := NewEngine(seq, testOptions()).NewRun(p).ClosestRepos(context.Background())

	opts := testOptions()
	opts.Parallelism = 3
	par := &fakeSource{profile: p, repoPages: pages}
	got := NewEngine(par, opts).NewRun(p).ClosestRepos(context.Background())

	require.Len(t, got, 5)
	assert.Equal(t, want, got)
	assert.LessOrEqual(t, len(par.repoCalls), len(seq.repoCalls)+opts.Parallelism-1)
}

func TestRecommendIsDeterministic(t *testing.T) {
	p := model.Profile{Login: "me", Readme: "golang rust"}
	pages := map[string][]model.Repo{
		"golang": {personalRepo("o1", "r", 3), personalRepo("o2", "r", 3)},
		"rust":   {personalRepo("o3", "r", 1)},
	}
	a, err := NewEngine(&fakeSource{profile: p, repoPages: pages}, testOptions()).Recommend(context.Background(), "me")
	require.NoError(t, err)
	b, err := NewEngine(&fakeSource{profile: p, repoPages: pages}, testOptions()).Recommend(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, a.NewRepos, b.NewRepos)
	assert.Equal(t, a.ClosestRepos, b.ClosestRepos)
	assert.NotEqual(t, a.RunID, b.RunID)
}
