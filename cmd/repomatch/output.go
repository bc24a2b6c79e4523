package main

import (
	"fmt"
	"io"
	"strings"

	"repomatch/internal/analytics"
	"repomatch/internal/api"
	"repomatch/internal/model"
	"repomatch/internal/recommend"
	"repomatch/internal/util"
)

const blurbLength = 72

func blurb(s string) string {
	return util.Truncate(util.NormalizeWhitespace(s), blurbLength)
}

func printReport(w io.Writer, rep *recommend.Report) {
	fmt.Fprintf(w, "@%s  keywords: %s\n", rep.Login, strings.Join(rep.Keywords, ", "))

	printRepos(w, "New repositories", rep.NewRepos)
	printRepos(w, "Closest repositories", rep.ClosestRepos)

	fmt.Fprintln(w, "\nDevelopers")
	if len(rep.Developers) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range rep.Developers {
		fmt.Fprintf(w, "  @%-24s score=%.2f followers=%d  %s\n", d.Login, d.Score, d.Followers, d.URL())
		if d.Bio != "" {
			fmt.Fprintf(w, "      %s\n", blurb(d.Bio))
		}
	}

	fmt.Fprintln(w, "\nFamiliar projects")
	if len(rep.Familiar) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range rep.Familiar {
		fmt.Fprintf(w, "  %-40s %s\n", r.FullName, r.URL())
	}
}

func printRepos(w io.Writer, title string, repos []recommend.RankedRepo) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(repos) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, r := range repos {
		fmt.Fprintf(w, "  %-40s score=%.2f stars=%d  %s\n", r.FullName, r.Score, r.Stars, r.URL())
		if r.Description != "" {
			fmt.Fprintf(w, "      %s\n", blurb(r.Description))
		}
	}
}

func printKeywords(w io.Writer, resp api.KeywordsResponse, repos []model.Repo) {
	s := resp.Summary
	fmt.Fprintf(w, "@%s\n", resp.Login)
	fmt.Fprintf(w, "  keywords:       %s\n", strings.Join(resp.Keywords, ", "))
	fmt.Fprintf(w, "  owned repos:    %d (%d forks)\n", s.OwnedRepos, s.Forks)
	fmt.Fprintf(w, "  starred:        %d\n", s.StarredRepos)
	fmt.Fprintf(w, "  collaborations: %d\n", s.Collaborations)
	langs := make([]string, 0, len(s.Languages))
	for _, l := range s.Languages {
		langs = append(langs, fmt.Sprintf("%s(%d)", l.Language, l.Repos))
	}
	fmt.Fprintf(w, "  languages:      %s\n", strings.Join(langs, " "))
	if s.LastPushedRepo != "" {
		fmt.Fprintf(w, "  last pushed:    %s on %s\n", s.LastPushedRepo, s.LastPushed.Format("2006-01-02"))
	}
	if len(s.RecentlyActive) > 0 {
		fmt.Fprintf(w, "  recently active: %s\n", strings.Join(s.RecentlyActive, ", "))
	}
	pushes := analytics.MonthlyPushes(repos)
	if len(pushes) == 0 {
		return
	}
	fmt.Fprintln(w, "  pushes by month:")
	for _, m := range analytics.SortedMonthKeys(pushes) {
		fmt.Fprintf(w, "    %s %s\n", m.Format("2006-01"), strings.Repeat("#", pushes[m]))
	}
}
