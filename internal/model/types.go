package model

import (
	"strings"
	"time"
)

// AccountKind is the GitHub account type of a user or repo owner.
type AccountKind string

const (
	KindUser         AccountKind = "User"
	KindOrganization AccountKind = "Organization"
)

// ParseAccountKind maps the API "type" field onto an AccountKind.
// Unknown values (e.g. "Bot") come back as-is so they never match KindUser.
func ParseAccountKind(s string) AccountKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return KindUser
	case "organization":
		return KindOrganization
	}
	return AccountKind(s)
}

// IsPersonal reports whether the account is a personal (non-org) account.
func (k AccountKind) IsPersonal() bool { return k == KindUser }

// Owner identifies the account that owns a repository.
type Owner struct {
	Login string      `json:"login"`
	Kind  AccountKind `json:"type"`
}

// Repo represents a subset of GitHub repository fields used by the tool.
type Repo struct {
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	Owner       Owner     `json:"owner"`
	Language    string    `json:"language,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	Description string    `json:"description,omitempty"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	PushedAt    time.Time `json:"pushed_at"`
	Fork        bool      `json:"fork"`
	HTMLURL     string    `json:"html_url"`
}

// URL returns the canonical web address of the repository.
func (r Repo) URL() string {
	if r.HTMLURL != "" {
		return r.HTMLURL
	}
	return "https://github.com/" + r.FullName
}

// CandidateUser is a developer surfaced by a user search.
type CandidateUser struct {
	Login     string      `json:"login"`
	Name      string      `json:"name,omitempty"`
	Bio       string      `json:"bio,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Followers int         `json:"followers"`
	Kind      AccountKind `json:"type"`
	HTMLURL   string      `json:"html_url"`
}

// HasAvatar reports whether the account exposes an avatar.
func (u CandidateUser) HasAvatar() bool { return u.AvatarURL != "" }

// URL returns the canonical profile address.
func (u CandidateUser) URL() string {
	if u.HTMLURL != "" {
		return u.HTMLURL
	}
	return "https://github.com/" + u.Login
}

// Profile is a read-only snapshot of one user's public activity.
type Profile struct {
	Login       string
	Name        string
	Bio         string
	Blog        string
	Location    string
	CreatedAt   time.Time
	Followers   int
	Following   int
	PublicRepos int

	Repos        []Repo
	Starred      []Repo
	Collaborated []string // repo full names from recent PR/issue events
	Readme       string
}
