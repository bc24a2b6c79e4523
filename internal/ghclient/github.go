package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"repomatch/internal/logging"
	"repomatch/internal/metrics"
	"repomatch/internal/model"
	"repomatch/internal/recommend"
)

var _ recommend.Source = (*HTTPClient)(nil)

type apiOwner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type apiRepo struct {
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	Owner       apiOwner  `json:"owner"`
	Language    string    `json:"language"`
	Topics      []string  `json:"topics"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	PushedAt    time.Time `json:"pushed_at"`
	Fork        bool      `json:"fork"`
	HTMLURL     string    `json:"html_url"`
}

func (r apiRepo) toModel() model.Repo {
	return model.Repo{
		FullName:    r.FullName,
		Name:        r.Name,
		Owner:       model.Owner{Login: r.Owner.Login, Kind: model.ParseAccountKind(r.Owner.Type)},
		Language:    r.Language,
		Topics:      r.Topics,
		Description: r.Description,
		Stars:       r.Stars,
		Forks:       r.Forks,
		OpenIssues:  r.OpenIssues,
		PushedAt:    r.PushedAt,
		Fork:        r.Fork,
		HTMLURL:     r.HTMLURL,
	}
}

type apiUser struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Blog        string    `json:"blog"`
	Location    string    `json:"location"`
	AvatarURL   string    `json:"avatar_url"`
	Type        string    `json:"type"`
	HTMLURL     string    `json:"html_url"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	PublicRepos int       `json:"public_repos"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u apiUser) toCandidate() model.CandidateUser {
	return model.CandidateUser{
		Login:     u.Login,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Followers: u.Followers,
		Kind:      model.ParseAccountKind(u.Type),
		HTMLURL:   u.HTMLURL,
	}
}

type apiEvent struct {
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
}

func (c *HTTPClient) getJSON(ctx context.Context, kind callKind, endpoint, u string, out any) error {
	body, err := c.get(ctx, kind, endpoint, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// getUser returns the public profile fields of login.
func (c *HTTPClient) getUser(ctx context.Context, login string) (apiUser, error) {
	var u apiUser
	err := c.getJSON(ctx, kindCore, "/users", fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(login)), &u)
	return u, err
}

func (c *HTTPClient) listRepos(ctx context.Context, endpoint, u string) ([]model.Repo, error) {
	var raw []apiRepo
	if err := c.getJSON(ctx, kindCore, endpoint, u, &raw); err != nil {
		return nil, err
	}
	out := make([]model.Repo, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *HTTPClient) listLogins(ctx context.Context, endpoint, u string) ([]string, error) {
	var raw []apiOwner
	if err := c.getJSON(ctx, kindCore, endpoint, u, &raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, o := range raw {
		out = append(out, o.Login)
	}
	return out, nil
}

// FetchProfile loads the user, their repos and stars, and best-effort
// collaboration events and profile README, concurrently.
func (c *HTTPClient) FetchProfile(ctx context.Context, login string) (model.Profile, error) {
	esc := url.PathEscape(login)
	var (
		user    apiUser
		repos   []model.Repo
		starred []model.Repo
		collab  []string
		readme  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = c.getUser(gctx, login)
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = c.listRepos(gctx, "/users/repos", fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=pushed", c.baseURL, esc))
		return err
	})
	g.Go(func() error {
		var err error
		starred, err = c.listRepos(gctx, "/users/starred", fmt.Sprintf("%s/users/%s/starred?per_page=100", c.baseURL, esc))
		return err
	})
	g.Go(func() error {
		v, err := c.collaborated(gctx, login)
		if err != nil {
			optionalFailed("events", login, err)
			return nil
		}
		collab = v
		return nil
	})
	g.Go(func() error {
		v, err := c.readme(gctx, login)
		if err != nil {
			optionalFailed("readme", login, err)
			return nil
		}
		readme = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		Login:        user.Login,
		Name:         user.Name,
		Bio:          user.Bio,
		Blog:         user.Blog,
		Location:     user.Location,
		CreatedAt:    user.CreatedAt,
		Followers:    user.Followers,
		Following:    user.Following,
		PublicRepos:  user.PublicRepos,
		Repos:        repos,
		Starred:      starred,
		Collaborated: collab,
		Readme:       readme,
	}, nil
}

func optionalFailed(source, login string, err error) {
	if IsNotFound(err) || errors.Is(err, context.Canceled) {
		return
	}
	metrics.IncEnrichmentFailure(source)
	logging.Warn("enrichment_failed", map[string]any{"source": source, "login": login, "error": err.Error()})
}

// collaborated returns repos the user opened PRs or issues on, unique in order.
func (c *HTTPClient) collaborated(ctx context.Context, login string) ([]string, error) {
	var events []apiEvent
	u := fmt.Sprintf("%s/users/%s/events/public?per_page=100", c.baseURL, url.PathEscape(login))
	if err := c.getJSON(ctx, kindCore, "/users/events", u, &events); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, e := range events {
		if e.Type != "PullRequestEvent" && e.Type != "IssuesEvent" {
			continue
		}
		if _, dup := seen[e.Repo.Name]; dup || e.Repo.Name == "" {
			continue
		}
		seen[e.Repo.Name] = struct{}{}
		out = append(out, e.Repo.Name)
	}
	return out, nil
}

// readme fetches the profile README from the login/login repository,
// trying the main branch then master. A missing README is not an error.
func (c *HTTPClient) readme(ctx context.Context, login string) (string, error) {
	esc := url.PathEscape(login)
	for _, branch := range []string{"main", "master"} {
		u := fmt.Sprintf("%s/%s/%s/%s/README.md", c.rawBaseURL, esc, esc, branch)
		body, err := c.get(ctx, kindRaw, "/readme", u)
		if err == nil {
			return string(body), nil
		}
		if !IsNotFound(err) {
			return "", err
		}
	}
	return "", nil
}

// SearchRepositories runs one repository search page.
func (c *HTTPClient) SearchRepositories(ctx context.Context, query string, f recommend.RepoFilter) ([]model.Repo, error) {
	var raw struct {
		Items []apiRepo `json:"items"`
	}
	if err := c.getJSON(ctx, kindSearch, "/search/repositories", c.repoSearchURL(query, f), &raw); err != nil {
		return nil, err
	}
	out := make([]model.Repo, 0, len(raw.Items))
	for _, r := range raw.Items {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SearchUsers runs one user search page. Hits are hydrated with their full
// profile when enabled; a failed hydration keeps the search fields.
func (c *HTTPClient) SearchUsers(ctx context.Context, query string, fields []string, pageSize int) ([]model.CandidateUser, error) {
	var raw struct {
		Items []apiUser `json:"items"`
	}
	if err := c.getJSON(ctx, kindSearch, "/search/users", c.userSearchURL(query, fields, pageSize), &raw); err != nil {
		return nil, err
	}
	out := make([]model.CandidateUser, len(raw.Items))
	for i, u := range raw.Items {
		out[i] = u.toCandidate()
	}
	if !c.hydrate {
		return out, nil
	}
	var g errgroup.Group
	for i := range out {
		g.Go(func() error {
			full, err := c.getUser(ctx, out[i].Login)
			if err != nil {
				optionalFailed("user_detail", out[i].Login, err)
				return nil
			}
			out[i] = full.toCandidate()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// ListOrganizations returns the public org logins of login.
func (c *HTTPClient) ListOrganizations(ctx context.Context, login string) ([]string, error) {
	return c.listLogins(ctx, "/users/orgs", fmt.Sprintf("%s/users/%s/orgs?per_page=100", c.baseURL, url.PathEscape(login)))
}

// ListFollowing returns the first page of accounts login follows.
func (c *HTTPClient) ListFollowing(ctx context.Context, login string) ([]string, error) {
	return c.listLogins(ctx, "/users/following", fmt.Sprintf("%s/users/%s/following?per_page=100", c.baseURL, url.PathEscape(login)))
}

// ListFollowers returns the first page of accounts following login.
func (c *HTTPClient) ListFollowers(ctx context.Context, login string) ([]string, error) {
	return c.listLogins(ctx, "/users/followers", fmt.Sprintf("%s/users/%s/followers?per_page=100", c.baseURL, url.PathEscape(login)))
}
