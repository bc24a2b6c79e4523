package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"repomatch/internal/model"
)

var errFake = errors.New("fake source failure")

type repoCall struct {
	query  string
	filter RepoFilter
}

type userCall struct {
	query  string
	fields []string
}

// fakeSource serves canned pages and records every call.
type fakeSource struct {
	mu sync.Mutex

	profile    model.Profile
	profileErr error

	repoPages map[string][]model.Repo
	userPages map[string][]model.CandidateUser
	failAll   bool

	orgs      []string
	following []string
	followers []string
	orgsErr   error

	repoCalls []repoCall
	userCalls []userCall
	orgCalls  int
}

func (f *fakeSource) FetchProfile(ctx context.Context, login string) (model.Profile, error) {
	if f.profileErr != nil {
		return model.Profile{}, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeSource) SearchRepositories(ctx context.Context, query string, filter RepoFilter) ([]model.Repo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repoCalls = append(f.repoCalls, repoCall{query: query, filter: filter})
	if f.failAll {
		return nil, errFake
	}
	page := f.repoPages[query]
	if len(page) > filter.PageSize {
		page = page[:filter.PageSize]
	}
	return page, nil
}

func (f *fakeSource) SearchUsers(ctx context.Context, query string, fields []string, pageSize int) ([]model.CandidateUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls = append(f.userCalls, userCall{query: query, fields: fields})
	if f.failAll {
		return nil, errFake
	}
	page := f.userPages[query]
	if len(page) > pageSize {
		page = page[:pageSize]
	}
	return page, nil
}

func (f *fakeSource) ListOrganizations(ctx context.Context, login string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgCalls++
	if f.failAll || f.orgsErr != nil {
		return nil, errFake
	}
	return f.orgs, nil
}

func (f *fakeSource) ListFollowing(ctx context.Context, login string) ([]string, error) {
	if f.failAll {
		return nil, errFake
	}
	return f.following, nil
}

func (f *fakeSource) ListFollowers(ctx context.Context, login string) ([]string, error) {
	if f.failAll {
		return nil, errFake
	}
	return f.followers, nil
}

func (f *fakeSource) reposCalled() []repoCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repoCall(nil), f.repoCalls...)
}

// hangSource answers the profile and blocks every other call until ctx ends.
type hangSource struct {
	profile  model.Profile
	searches atomic.Int64
}

func (h *hangSource) FetchProfile(ctx context.Context, login string) (model.Profile, error) {
	return h.profile, nil
}

func (h *hangSource) SearchRepositories(ctx context.Context, query string, filter RepoFilter) ([]model.Repo, error) {
	h.searches.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (h *hangSource) SearchUsers(ctx context.Context, query string, fields []string, pageSize int) ([]model.CandidateUser, error) {
	h.searches.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (h *hangSource) ListOrganizations(ctx context.Context, login string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (h *hangSource) ListFollowing(ctx context.Context, login string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (h *hangSource) ListFollowers(ctx context.Context, login string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeSource) repoQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.repoCalls))
	for _, c := range f.repoCalls {
		out = append(out, c.query)
	}
	return out
}

func (f *fakeSource) userQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.userCalls))
	for _, c := range f.userCalls {
		out = append(out, c.query)
	}
	return out
}

var fixedNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	o := DefaultOptions()
	o.Now = func() time.Time { return fixedNow }
	return o
}

func personalRepo(owner, name string, stars int) model.Repo {
	return model.Repo{
		FullName: owner + "/" + name,
		Name:     name,
		Owner:    model.Owner{Login: owner, Kind: model.KindUser},
		Stars:    stars,
		PushedAt: fixedNow.Add(-24 * time.Hour),
	}
}

func orgRepo(owner, name string, stars int) model.Repo {
	r := personalRepo(owner, name, stars)
	r.Owner.Kind = model.KindOrganization
	return r
}

func user(login string) model.CandidateUser {
	return model.CandidateUser{Login: login, Kind: model.KindUser, AvatarURL: "https://avatars.example/" + login}
}
