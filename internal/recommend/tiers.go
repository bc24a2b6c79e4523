package recommend

import "repomatch/internal/model"

// singleQueries yields one query per keyword, in keyword order.
func singleQueries(keywords []string) []searchQuery {
	out := make([]searchQuery, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, searchQuery{terms: k})
	}
	return out
}

// pairQueries yields every unordered keyword pair i<j, nested in keyword order.
func pairQueries(keywords []string, fields []string) []searchQuery {
	var out []searchQuery
	for i := 0; i < len(keywords); i++ {
		for j := i + 1; j < len(keywords); j++ {
			out = append(out, searchQuery{terms: keywords[i] + " " + keywords[j], fields: fields})
		}
	}
	return out
}

// roleQueries combines each keyword with each role term, keyword-major.
func roleQueries(keywords, roles, fields []string) []searchQuery {
	out := make([]searchQuery, 0, len(keywords)*len(roles))
	for _, k := range keywords {
		for _, r := range roles {
			out = append(out, searchQuery{terms: k + " " + r, fields: fields})
		}
	}
	return out
}

// fieldQueries searches each keyword in one profile field at a time, keyword-major.
func fieldQueries(keywords, fields []string) []searchQuery {
	out := make([]searchQuery, 0, len(keywords)*len(fields))
	for _, k := range keywords {
		for _, f := range fields {
			out = append(out, searchQuery{terms: k, fields: []string{f}})
		}
	}
	return out
}

// starredOwners turns owners of starred repositories into candidate users,
// in starred order.
func starredOwners(starred []model.Repo) []model.CandidateUser {
	out := make([]model.CandidateUser, 0, len(starred))
	for _, r := range starred {
		if r.Owner.Login == "" {
			continue
		}
		out = append(out, model.CandidateUser{
			Login:   r.Owner.Login,
			Kind:    r.Owner.Kind,
			HTMLURL: "https://github.com/" + r.Owner.Login,
		})
	}
	return out
}
