package recommend

import (
	"sort"
	"strings"

	"repomatch/internal/model"
	"repomatch/internal/util"
)

// KeywordOptions controls keyword extraction.
type KeywordOptions struct {
	MaxKeywords int
	MinLength   int
	Stopwords   []string
}

// DefaultStopwords are generic repository words that say nothing about a
// user's interests.
var DefaultStopwords = []string{
	"github", "project", "code", "open", "source", "repo", "readme", "main",
	"test", "example", "sample", "awesome", "list", "tool", "tools", "app",
	"application", "api", "framework", "library", "system", "file", "files",
	"data", "user", "users", "use", "using", "for", "with", "and", "the",
	"from", "your", "this", "that", "about", "more", "other", "based",
	"support", "simple", "awesome-list",
}

// DefaultKeywordOptions returns the stock extraction settings.
func DefaultKeywordOptions() KeywordOptions {
	return KeywordOptions{MaxKeywords: 8, MinLength: 3, Stopwords: DefaultStopwords}
}

// ExtractKeywords derives the user's interest keywords from owned repos,
// starred repos and the profile README. The result is ordered by descending
// frequency, ties broken by first appearance.
func ExtractKeywords(p model.Profile, opts KeywordOptions) []string {
	if opts.MaxKeywords <= 0 {
		return nil
	}
	stop := make(map[string]struct{}, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	// Short language and topic tags such as "go" pass the length filter.
	tags := map[string]struct{}{}
	for _, r := range append(append([]model.Repo(nil), p.Repos...), p.Starred...) {
		if r.Language != "" {
			tags[strings.ToLower(r.Language)] = struct{}{}
		}
		for _, t := range r.Topics {
			tags[strings.ToLower(t)] = struct{}{}
		}
	}

	counts := map[string]int{}
	var order []string
	add := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			return
		}
		if _, tag := tags[tok]; !tag && len(tok) < opts.MinLength {
			return
		}
		if _, skip := stop[tok]; skip {
			return
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}
	addRepo := func(r model.Repo) {
		if r.Language != "" {
			add(r.Language)
		}
		for _, t := range r.Topics {
			add(t)
		}
		for _, t := range util.Tokenize(r.Description) {
			add(t)
		}
	}

	for _, r := range p.Repos {
		addRepo(r)
	}
	for _, r := range p.Starred {
		addRepo(r)
	}
	for _, t := range util.Tokenize(p.Readme) {
		add(t)
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > opts.MaxKeywords {
		order = order[:opts.MaxKeywords]
	}
	return order
}
