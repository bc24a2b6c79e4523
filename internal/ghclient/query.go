package ghclient

import (
	"fmt"
	"net/url"
	"strings"

	"repomatch/internal/recommend"
)

// RepoQuery renders terms and filter as a search/repositories q value.
func RepoQuery(terms string, f recommend.RepoFilter) string {
	parts := []string{strings.TrimSpace(terms)}
	if len(f.In) > 0 {
		parts = append(parts, "in:"+strings.Join(f.In, ","))
	}
	if !f.PushedAfter.IsZero() {
		parts = append(parts, "pushed:>"+f.PushedAfter.UTC().Format("2006-01-02"))
	}
	if f.MaxStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:<%d", f.MaxStars))
	}
	return strings.Join(parts, " ")
}

// UserQuery renders terms and fields as a search/users q value.
func UserQuery(terms string, fields []string) string {
	parts := []string{strings.TrimSpace(terms)}
	for _, f := range fields {
		parts = append(parts, "in:"+f)
	}
	parts = append(parts, "type:user")
	return strings.Join(parts, " ")
}

func (c *HTTPClient) repoSearchURL(terms string, f recommend.RepoFilter) string {
	v := url.Values{}
	v.Set("q", RepoQuery(terms, f))
	if f.Sort != "" {
		v.Set("sort", f.Sort)
		v.Set("order", "desc")
	}
	v.Set("per_page", fmt.Sprint(clamp(f.PageSize, 1, 100)))
	return c.baseURL + "/search/repositories?" + v.Encode()
}

func (c *HTTPClient) userSearchURL(terms string, fields []string, pageSize int) string {
	v := url.Values{}
	v.Set("q", UserQuery(terms, fields))
	v.Set("per_page", fmt.Sprint(clamp(pageSize, 1, 100)))
	return c.baseURL + "/search/users?" + v.Encode()
}
