package recommend

import (
	"context"
	"time"

	"repomatch/internal/model"
)

// RepoFilter narrows a repository search.
type RepoFilter struct {
	PushedAfter time.Time
	// MaxStars excludes repositories with this many stars or more. 0 disables it.
	MaxStars int
	// Sort is "updated" or empty for best match.
	Sort     string
	In       []string
	PageSize int
}

// Source is the external capability the engine reads from.
// Implementations must be safe for concurrent use when Parallelism > 1.
type Source interface {
	FetchProfile(ctx context.Context, login string) (model.Profile, error)
	SearchRepositories(ctx context.Context, query string, f RepoFilter) ([]model.Repo, error)
	SearchUsers(ctx context.Context, query string, fields []string, pageSize int) ([]model.CandidateUser, error)
	ListOrganizations(ctx context.Context, login string) ([]string, error)
	ListFollowing(ctx context.Context, login string) ([]string, error)
	ListFollowers(ctx context.Context, login string) ([]string, error)
}
